package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/services"
)

const snippetLen = 240

var (
	searchK    int
	searchDocs []string
	searchJSON bool
	searchYAML bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and ranks every indexed chunk by cosine similarity.
Results are ordered by descending score; k is clamped to 1..20.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top", "k", 0, "number of results (default from settings)")
	searchCmd.Flags().StringSliceVarP(&searchDocs, "doc", "d", nil, "restrict to document ids (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchYAML, "yaml", false, "output results as YAML")
	searchCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return serviceError("search")
	}

	hits, err := retrievalService.Search(cmd.Context(), args[0], searchOptions(searchK, searchDocs))
	if err != nil {
		return fmt.Errorf("search failed: %w", explain(err))
	}

	switch {
	case searchJSON:
		return outputSearchJSON(cmd, hits)
	case searchYAML:
		return outputSearchYAML(cmd, hits)
	default:
		outputSearchTable(cmd, hits)
		return nil
	}
}

// searchOptions applies the configured default when k was not given.
func searchOptions(k int, docs []string) domain.SearchOptions {
	if k == 0 {
		k = defaultK
	}
	return domain.SearchOptions{K: k, DocumentIDs: docs}
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.Hit) error {
	if hits == nil {
		hits = []domain.Hit{}
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchYAML(cmd *cobra.Command, hits []domain.Hit) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(hits); err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return enc.Close()
}

func outputSearchTable(cmd *cobra.Command, hits []domain.Hit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		// Format: [N] name (p. X) score
		cmd.Printf("  [%d] %s (%s) %.3f\n", i+1, hits[i].DocumentName,
			services.PageLabel(hits[i].PageStart, hits[i].PageEnd), hits[i].Score)
		cmd.Printf("      %s\n", snippet(hits[i].Text, snippetLen))
		cmd.Printf("      chunk %s\n", hits[i].ChunkID)
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
