package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sift-labs/tableqa/internal/core/domain"
	"github.com/sift-labs/tableqa/internal/logger"
)

var (
	ingestStrategy string
	ingestWatch    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a PDF file or a directory of PDFs",
	Long: `Partitions each PDF into elements, stores extracted tables for exact
lookups and embeds narrative text for semantic search.

With --watch the path must be a directory; new and changed PDFs are
ingested as they appear until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestStrategy, "strategy", "s", "auto", "partitioning strategy (auto, fast, hi_res)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch a directory and ingest new PDFs")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	strategy := domain.Strategy(ingestStrategy)
	ctx := commandContext(cmd)

	if ingestWatch {
		return watchDirectory(ctx, cmd, path, strategy)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}

	if info.IsDir() {
		results, err := ingestService.IngestDirectory(ctx, path, strategy)
		if err != nil {
			return fmt.Errorf("ingest directory failed: %w", err)
		}
		for _, result := range results {
			printIngestResult(cmd, result)
		}
		cmd.Printf("Ingested %d documents.\n", len(results))
		return nil
	}

	result, err := ingestService.IngestFile(ctx, path, strategy)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestResult(cmd, *result)
	return nil
}

func printIngestResult(cmd *cobra.Command, result domain.IngestResult) {
	cmd.Printf("%s: %d tables, %d chunks (strategy %s)\n",
		result.SourceFilename, result.Tables, result.Chunks, result.Strategy)
}

// watchDirectory ingests PDFs as they are created or written in dir, until
// the context is cancelled or an interrupt arrives.
func watchDirectory(ctx context.Context, cmd *cobra.Command, dir string, strategy domain.Strategy) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--watch requires a directory, got %q", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	cmd.Printf("Watching %s for PDFs. Press Ctrl+C to stop.\n", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-interrupts:
			cmd.Println("Stopped watching.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			result, err := ingestService.IngestFile(ctx, event.Name, strategy)
			if err != nil {
				logger.Error("watch ingest %s: %v", filepath.Base(event.Name), err)
				continue
			}
			printIngestResult(cmd, *result)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: %v", err)
		}
	}
}
