package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/adapters/driving/watch"
)

var (
	watchDebounce  time.Duration
	watchNoInitial bool
	watchInclude   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory indexed as files change",
	Long: `Indexes every supported file under dir, then re-indexes files when they
are created or modified and deletes their documents when they are removed.
Hidden files and directories are ignored. --include restricts indexing to
paths matching a glob relative to dir, e.g. --include 'notes/**/*.md'.
Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is processed")
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "skip indexing existing files on start")
	watchCmd.Flags().StringSliceVar(&watchInclude, "include", nil, "only index paths matching these globs (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return serviceError("index")
	}
	if documentService == nil {
		return serviceError("document")
	}

	w, err := watch.New(indexService, documentService, watch.Config{
		Root:        args[0],
		Extensions:  indexExtensions,
		Include:     watchInclude,
		Debounce:    watchDebounce,
		InitialScan: !watchNoInitial,
		OnEvent: func(ev watch.Event) {
			switch ev.Action {
			case watch.ActionIndexed:
				cmd.Printf("  indexed %s (%s, %d chunks)\n", ev.Path, shortID(ev.DocumentID), ev.ChunkCount)
			case watch.ActionDeleted:
				cmd.Printf("  deleted %s (%s)\n", ev.Path, shortID(ev.DocumentID))
			case watch.ActionFailed:
				cmd.PrintErrf("  failed  %s: %v\n", ev.Path, explain(ev.Err))
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", args[0])
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
