package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/services"
)

const timeLayout = "2006-01-02 15:04:05"

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage indexed documents",
	Long: `List, view, or delete indexed documents.

Document ids may be abbreviated to any unique prefix.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print the indexed chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:     "delete [doc-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a document and its chunks",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentDelete,
}

var documentListJSON bool

func init() {
	documentListCmd.Flags().BoolVar(&documentListJSON, "json", false, "output documents as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return serviceError("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentListJSON {
		if docs == nil {
			docs = []domain.Document{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed. Add some with 'kbase index <path>'.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %-40s %3d pages %4d chunks  %s\n",
			shortID(docs[i].ID), docs[i].Name, docs[i].PageCount, docs[i].ChunkCount,
			docs[i].CreatedAt.Local().Format(timeLayout))
	}

	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return serviceError("document")
	}

	docID, err := resolveDocumentID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	doc, err := documentService.Get(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.Name)
	cmd.Printf("  Pages:    %d\n", doc.PageCount)
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	cmd.Printf("  Size:     %d bytes\n", doc.ByteSize)
	cmd.Printf("  Model:    %s\n", doc.EmbeddingModel)
	cmd.Printf("  Indexed:  %s\n", doc.CreatedAt.Local().Format(timeLayout))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return serviceError("document")
	}

	docID, err := resolveDocumentID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	chunks, err := documentService.GetContent(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	for i := range chunks {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("--- chunk %d (%s) ---\n", chunks[i].Index, services.PageLabel(chunks[i].PageStart, chunks[i].PageEnd))
		cmd.Println(strings.TrimSpace(chunks[i].Text))
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return serviceError("document")
	}

	docID, err := resolveDocumentID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", shortID(docID))
	return nil
}

// resolveDocumentID expands a unique id prefix to the full document id.
// Full-length ids are returned unchanged.
func resolveDocumentID(ctx context.Context, prefix string) (string, error) {
	if len(prefix) >= domain.DocumentIDLength {
		return prefix, nil
	}

	docs, err := documentService.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list documents: %w", err)
	}

	var matches []string
	for i := range docs {
		if strings.HasPrefix(docs[i].ID, prefix) {
			matches = append(matches, docs[i].ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("document %q: %w", prefix, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("document id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
