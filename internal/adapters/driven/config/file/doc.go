// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.kbase/config.toml
//   - PromptStore: user-editable prompt files under ~/.kbase/prompts
package file
