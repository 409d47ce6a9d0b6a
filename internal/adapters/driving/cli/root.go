// Package cli implements the jurisrag command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// version is set from main via SetVersion (ldflags at build time).
var version = "dev"

// Services the commands run against. Populated by ensureServices on
// first use; tests inject mocks directly.
var (
	retrievalService driving.RetrievalService
	indexService     driving.IndexService
	answerComposer   driven.AnswerComposer
	corpusCatalog    driven.CorpusCatalog
	configStore      driven.ConfigStore
)

var (
	flagConfigDir string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "jurisrag",
	Short: "Retrieval over Brazilian court decisions",
	Long: `JurisRAG indexes Brazilian court decisions and retrieves the passages
most relevant to a legal question.

Decisions are ingested from scraper output, chunked, embedded and
indexed; queries run semantic retrieval with a coverage verdict, and
optionally a grounded answer composed from the cited excerpts.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.jurisrag)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
