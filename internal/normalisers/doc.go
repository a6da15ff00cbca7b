// Package normalisers turns local files into ordered page texts.
// Each subpackage implements driven.PageSource for a family of file
// extensions; Registry selects one by file name.
package normalisers
