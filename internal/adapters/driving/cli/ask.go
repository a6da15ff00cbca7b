package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/core/services"
)

var (
	askK               int
	askDocs            []string
	askAllowUngrounded bool
	askRaw             bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed documents",
	Long: `Retrieves the passages most similar to the question and asks the
configured LLM to answer from them, citing passages as [1], [2] and so on.

With --allow-ungrounded, a failure of the embedding provider does not abort:
the LLM answers without context and the answer is marked as ungrounded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top", "k", 0, "number of passages used as context (default from settings)")
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "restrict context to document ids (repeatable)")
	askCmd.Flags().BoolVar(&askAllowUngrounded, "allow-ungrounded", false, "answer without context if retrieval fails")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the answer without markdown rendering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return serviceError("answer")
	}

	answer, err := answerService.Ask(cmd.Context(), args[0], driving.AskOptions{
		SearchOptions:   searchOptions(askK, askDocs),
		AllowUngrounded: askAllowUngrounded,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", explain(err))
	}

	cmd.Println(renderAnswer(answer.Text, !askRaw && isTerminal()))

	if !answer.Grounded {
		cmd.Println("Note: retrieval was unavailable, this answer is not based on your documents.")
		return nil
	}
	printSources(cmd, answer.Hits)
	return nil
}

// renderAnswer renders markdown for a terminal, or returns text unchanged.
func renderAnswer(text string, pretty bool) string {
	if !pretty {
		return strings.TrimSpace(text)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return strings.TrimSpace(text)
	}
	out, err := r.Render(text)
	if err != nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimRight(out, "\n")
}

func printSources(cmd *cobra.Command, hits []domain.Hit) {
	if len(hits) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range hits {
		cmd.Printf("  [%d] %s (%s)\n", i+1, hits[i].DocumentName,
			services.PageLabel(hits[i].PageStart, hits[i].PageEnd))
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
