package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arandu-labs/jurisrag/internal/adapters/driven/catalog/sqlite"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/config/file"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/docstore/parquet"
	ollamaembed "github.com/arandu-labs/jurisrag/internal/adapters/driven/embedding/ollama"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/arandu-labs/jurisrag/internal/adapters/driven/llm/ollama"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/vector/flat"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/vector/opensearch"
	"github.com/arandu-labs/jurisrag/internal/chunker"
	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/services"
)

// Vector index backends selectable via the "backend" config key.
const (
	BackendFlat       = "flat"
	BackendOpenSearch = "opensearch"
)

// ensureServices wires the full adapter stack from configuration. It
// runs once; commands call it at the top of RunE so help and version
// never touch config or storage. Tests inject mocks into the service
// vars directly, which makes this a no-op.
func ensureServices(ctx context.Context) error {
	if retrievalService != nil {
		return nil
	}

	cfg, err := file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore = cfg

	dataDir := cfg.GetString("data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".jurisrag", "data")
	}

	catalog, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening corpus catalog: %w", err)
	}
	corpusCatalog = catalog

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	index, backend, err := buildIndex(ctx, cfg, dataDir, embedder.Dimensions())
	if err != nil {
		return err
	}

	docs, err := parquet.New(filepath.Join(dataDir, "docstore"))
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	if err := docs.Load(ctx); err != nil {
		return fmt.Errorf("loading document store: %w", err)
	}

	policy := coveragePolicy(cfg)

	retrievalService = services.NewRetrieval(embedder, index, docs, policy, backend)
	indexService = services.NewIndexer(catalog, buildSplitter(cfg), embedder, index, docs, backend)
	answerComposer = ollamallm.NewComposer(ollamallm.Config{
		BaseURL: cfg.GetString("llm_base_url"),
		Model:   cfg.GetString("llm_model"),
	})

	return nil
}

// buildEmbedder selects the embedding provider. Ollama is the default
// because it runs without credentials.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding_provider")
	switch provider {
	case "", "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("embedding_base_url"),
			Model:      cfg.GetString("embedding_model"),
			Dimensions: cfg.GetInt("embedding_dimensions"),
		}), nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     firstNonEmpty(cfg.GetString("openai_api_key"), os.Getenv("OPENAI_API_KEY")),
			BaseURL:    cfg.GetString("embedding_base_url"),
			Model:      cfg.GetString("embedding_model"),
			Dimensions: cfg.GetInt("embedding_dimensions"),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (ollama, openai)", provider)
	}
}

// buildIndex selects the vector index backend. The choice is made once
// at startup; the services never learn which implementation they hold.
func buildIndex(ctx context.Context, cfg driven.ConfigStore, dataDir string, dim int) (driven.VectorIndex, string, error) {
	backend := strings.ToLower(cfg.GetString("backend"))
	switch backend {
	case "", BackendFlat:
		index, err := flat.New(filepath.Join(dataDir, "index"), dim)
		if err != nil {
			return nil, "", fmt.Errorf("opening flat index: %w", err)
		}
		return index, BackendFlat, nil
	case BackendOpenSearch:
		indexName := cfg.GetString("opensearch_index")
		if indexName == "" {
			indexName = "decisions"
		}
		client, err := opensearch.New(ctx, opensearch.Config{
			URL:       cfg.GetString("opensearch_url"),
			IndexName: indexName,
			Username:  cfg.GetString("opensearch_username"),
			Password:  cfg.GetString("opensearch_password"),
			Dimension: dim,
		})
		if err != nil {
			return nil, "", fmt.Errorf("connecting to opensearch: %w", err)
		}
		return client, BackendOpenSearch, nil
	default:
		return nil, "", fmt.Errorf("unknown backend %q (%s, %s)", backend, BackendFlat, BackendOpenSearch)
	}
}

// buildSplitter reads chunking overrides. Zero values fall back to the
// splitter defaults.
func buildSplitter(cfg driven.ConfigStore) *chunker.Splitter {
	return chunker.New(chunker.Config{
		TargetSize: cfg.GetInt("chunk_target_tokens"),
		MinSize:    cfg.GetInt("chunk_min_tokens"),
		MaxSize:    cfg.GetInt("chunk_max_tokens"),
		Overlap:    cfg.GetInt("chunk_overlap_tokens"),
	})
}

// coveragePolicy reads threshold overrides, keeping the calibrated
// defaults for anything unset.
func coveragePolicy(cfg driven.ConfigStore) domain.CoveragePolicy {
	policy := domain.DefaultCoveragePolicy()
	if v := cfg.GetInt("coverage_high_min_count"); v > 0 {
		policy.HighMinCount = v
	}
	if v := cfg.GetFloat("coverage_high_min_avg"); v > 0 {
		policy.HighMinAvg = v
	}
	if v := cfg.GetInt("coverage_medium_min_count"); v > 0 {
		policy.MediumMinCount = v
	}
	if v := cfg.GetFloat("coverage_medium_min_avg"); v > 0 {
		policy.MediumMinAvg = v
	}
	return policy
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
