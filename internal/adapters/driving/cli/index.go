package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the retrieval index",
	Long:  `Commands for building and inspecting the retrieval index.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the index from the corpus catalog",
	Long: `Runs a full batch rebuild: reads every decision from the corpus
catalog, chunks and embeds the texts, and replaces the vector index
and metadata store. The previous index stays in service until the
build completes.`,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus size and the last build",
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	report, err := indexService.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Build %s complete.\n", report.RunID)
	cmd.Printf("  Decisions: %d\n", report.Documents)
	cmd.Printf("  Chunks:    %d\n", report.Chunks)
	if report.Skipped > 0 {
		cmd.Printf("  Skipped:   %d (empty text)\n", report.Skipped)
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	count, err := corpusCatalog.CountDecisions(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting decisions: %w", err)
	}

	cmd.Printf("Backend:   %s\n", retrievalService.Backend())
	cmd.Printf("Decisions: %d\n", count)

	run, err := corpusCatalog.LastIndexRun(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("Last build: none")
			return nil
		}
		return fmt.Errorf("reading last build: %w", err)
	}

	cmd.Printf("Last build: %s\n", run.ID)
	cmd.Printf("  Backend:   %s\n", run.Backend)
	cmd.Printf("  Decisions: %d\n", run.Documents)
	cmd.Printf("  Chunks:    %d\n", run.Chunks)
	cmd.Printf("  Finished:  %s\n", run.FinishedAt)
	return nil
}
