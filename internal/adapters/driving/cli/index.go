package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [path|glob]...",
	Short: "Index local files",
	Long: `Adds files to the knowledge base. Each argument may be a file, a directory
(walked recursively) or a glob such as 'docs/**/*.md'.

A file is identified by its content, so indexing an unchanged file again
replaces its previous chunks rather than adding a copy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return serviceError("index")
	}

	paths, err := expandPaths(args, indexExtensions)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Println("No indexable files found.")
		return nil
	}

	failed := 0
	for _, path := range paths {
		result, err := indexService.IndexFile(cmd.Context(), path)
		if err != nil {
			failed++
			cmd.PrintErrf("  failed  %s: %v\n", path, explain(err))
			continue
		}
		cmd.Printf("  indexed %s (%s, %d chunks)\n", path, shortID(result.DocumentID), result.ChunkCount)
	}

	cmd.Printf("\n%d of %d files indexed\n", len(paths)-failed, len(paths))
	if failed > 0 {
		return fmt.Errorf("%d files failed to index", failed)
	}
	return nil
}

// expandPaths resolves files, directories and doublestar globs into a
// sorted, de-duplicated file list. Directory and glob matches are filtered
// by extension; explicitly named files are kept so unsupported types are
// reported.
func expandPaths(args, extensions []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		if hasGlobMeta(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			paths = append(paths, filterExtensions(matches, extensions)...)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(arg), "**", doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		for _, m := range filterExtensions(matches, extensions) {
			if !isHidden(m) {
				paths = append(paths, filepath.Join(arg, filepath.FromSlash(m)))
			}
		}
	}

	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// filterExtensions keeps paths with a supported extension.
func filterExtensions(paths, extensions []string) []string {
	var kept []string
	for _, p := range paths {
		if len(extensions) > 0 && !slices.Contains(extensions, strings.ToLower(filepath.Ext(p))) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// isHidden reports whether a slash-separated relative path names a dot
// file or lies inside a dot directory.
func isHidden(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// shortID abbreviates a content id for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
