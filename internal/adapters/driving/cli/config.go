package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change configuration keys.

Common keys:
  backend                 vector index backend (flat, opensearch)
  data_dir                storage directory for index and catalog
  ingest_dir              scraper output directory to watch
  embedding_provider      embedding provider (ollama, openai)
  embedding_model         embedding model name
  embedding_dimensions    embedding vector size
  llm_base_url            answer model API base URL
  llm_model               answer model name
  opensearch_url          OpenSearch cluster URL`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// openConfigStore opens the store without wiring the service stack, so
// configuration works before any backend is reachable.
func openConfigStore() error {
	if configStore != nil {
		return nil
	}
	store, err := file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = store
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := openConfigStore(); err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n", configStore.Path())
	cmd.Println()

	keys := configKeys()
	if len(keys) == 0 {
		cmd.Println("No keys set; defaults apply.")
		return nil
	}
	for _, key := range keys {
		value, _ := configStore.Get(key)
		if key == "opensearch_password" || key == "openai_api_key" {
			value = "********"
		}
		cmd.Printf("  %s = %v\n", key, value)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := openConfigStore(); err != nil {
		return err
	}

	key, raw := args[0], args[1]
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if err := configStore.Set(key, coerceValue(raw)); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

// configKeys lists the set keys in stable order. The store exposes no
// enumeration, so probe the documented keys.
func configKeys() []string {
	known := []string{
		"backend", "data_dir", "ingest_dir",
		"embedding_provider", "embedding_base_url", "embedding_model", "embedding_dimensions",
		"openai_api_key",
		"llm_base_url", "llm_model",
		"opensearch_url", "opensearch_index", "opensearch_username", "opensearch_password",
		"chunk_target_tokens", "chunk_min_tokens", "chunk_max_tokens", "chunk_overlap_tokens",
		"coverage_high_min_count", "coverage_high_min_avg",
		"coverage_medium_min_count", "coverage_medium_min_avg",
	}
	var keys []string
	for _, key := range known {
		if _, ok := configStore.Get(key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// coerceValue stores numerics and booleans typed, everything else as
// string, so GetInt and friends round-trip.
func coerceValue(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	return raw
}
