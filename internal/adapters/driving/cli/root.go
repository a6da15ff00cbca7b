// Package cli provides the kbase command line interface built on cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// ProviderChecker verifies provider settings with a live request.
type ProviderChecker interface {
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}

// Services holds the driving ports the commands use.
// Any of them may be nil; commands needing a missing service fail with a hint.
type Services struct {
	Index     driving.IndexService
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Document  driving.DocumentService
	Settings  driving.SettingsService
	Checker   ProviderChecker

	// Extensions lists the file extensions that can be indexed.
	Extensions []string

	// DefaultK is used when --k is not given.
	DefaultK int
}

var (
	version = "dev"
	verbose bool

	indexService     driving.IndexService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	providerChecker  ProviderChecker
	indexExtensions  []string
	defaultK         = domain.DefaultResults
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Local knowledge base search",
	Long: `kbase indexes local documents into a small on-disk knowledge base and
retrieves the passages most similar to a question.

Documents are split into overlapping chunks, embedded with the configured
provider and stored in SQLite. Searches rank every stored chunk exactly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices wires the driving ports into the commands.
func SetServices(s *Services) {
	indexService = s.Index
	retrievalService = s.Retrieval
	answerService = s.Answer
	documentService = s.Document
	settingsService = s.Settings
	providerChecker = s.Checker
	indexExtensions = s.Extensions
	defaultK = domain.DefaultResults
	if s.DefaultK > 0 {
		defaultK = s.DefaultK
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// serviceError explains why a command cannot run without a service.
func serviceError(name string) error {
	return errors.New(name + " service not configured")
}

// explain adds a remedy to errors the user can fix through settings.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return errors.Join(err, errors.New("configure a provider with 'kbase settings embedding' or 'kbase settings set-key embedding'"))
	case errors.Is(err, domain.ErrLLMUnavailable):
		return errors.Join(err, errors.New("configure a provider with 'kbase settings llm'"))
	default:
		return err
	}
}
