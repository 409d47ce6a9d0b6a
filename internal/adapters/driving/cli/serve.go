package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/adapters/driven/corpuswatch"
	"github.com/arandu-labs/jurisrag/internal/adapters/driving/httpapi"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP retrieval API",
	Long: `Starts the JSON HTTP API:

  POST /api/search   semantic search, raw similarity scores
  POST /api/rag      scored excerpts, coverage verdict and answer
  GET  /api/health   liveness and active backend

When the "ingest_dir" config key points at the scraper output
directory, the server also watches it and logs when new corpus files
land, meaning the index is stale until the next build.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureServices(ctx); err != nil {
		return err
	}

	if configStore != nil {
		if dir := configStore.GetString("ingest_dir"); dir != "" {
			watcher, err := corpuswatch.NewWatcher(dir)
			if err != nil {
				logger.Warn("Corpus watcher disabled: %v", err)
			} else {
				defer watcher.Close()
				go watcher.Run(ctx)
				logger.Info("Watching %s for corpus changes", dir)
			}
		}
	}

	server := httpapi.NewServer(retrievalService, answerComposer, fmt.Sprintf(":%d", servePort))
	return server.Start(ctx)
}
