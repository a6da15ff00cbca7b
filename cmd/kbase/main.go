// Command kbase indexes local documents and answers questions from them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/kbase/internal/adapters/driven/ai"
	"github.com/custodia-labs/kbase/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kbase/internal/adapters/driving/cli"
	"github.com/custodia-labs/kbase/internal/core/services"
	"github.com/custodia-labs/kbase/internal/logger"
	"github.com/custodia-labs/kbase/internal/normalisers"
	"github.com/custodia-labs/kbase/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	// Wiring logs before cobra parses flags.
	logger.SetVerbose(slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose"))

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store: %v", err)
		}
	}()

	providers := ai.Init(settings)
	defer func() {
		if err := providers.Close(); err != nil {
			logger.Warn("closing providers: %v", err)
		}
	}()
	for _, w := range providers.Warnings {
		logger.Warn("%s", w)
	}

	pages := normalisers.Default()
	indexService := services.NewIndexingService(
		store,
		providers.EmbeddingService,
		chunker.New(
			chunker.WithMaxChars(settings.Chunking.MaxChars),
			chunker.WithOverlap(settings.Chunking.OverlapChars),
		),
		services.WithBatchSize(settings.Embedding.BatchSize),
		services.WithPageSources(pages),
	)
	retrievalService := services.NewRetrievalService(store, providers.EmbeddingService)

	answerOpts := []services.AnswerOption{}
	if prompts, err := file.NewPromptStore(""); err != nil {
		logger.Warn("prompt overrides disabled: %v", err)
	} else {
		answerOpts = append(answerOpts, services.WithPromptStore(prompts))
	}
	answerService := services.NewAnswerService(retrievalService, providers.LLMService, answerOpts...)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Index:      indexService,
		Retrieval:  retrievalService,
		Answer:     answerService,
		Document:   services.NewDocumentService(store),
		Settings:   settingsService,
		Checker:    ai.NewConfigValidator(),
		Extensions: pages.Extensions(),
		DefaultK:   settings.Retrieval.DefaultK,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
