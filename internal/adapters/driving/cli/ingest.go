package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Load scraper output into the corpus catalog",
	Long: `Reads cleaned court decisions from scraper output files and upserts
them into the corpus catalog. Accepts JSON Lines (one decision per
line) and JSON array files.

Each decision record carries:
  id       unique identifier (required)
  text     full decision text (required)
  title, court, code, article, date, meta   optional metadata

Ingesting does not touch the index; run "jurisrag index build" after.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// decisionRecord is the scraper output row. Empty optional fields are
// treated as absent.
type decisionRecord struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Title   string            `json:"title,omitempty"`
	Court   string            `json:"court,omitempty"`
	Code    string            `json:"code,omitempty"`
	Article string            `json:"article,omitempty"`
	Date    string            `json:"date,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	total := 0
	for _, path := range args {
		docs, err := readDecisionFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(docs) == 0 {
			cmd.Printf("  %s: no decisions\n", path)
			continue
		}
		if err := corpusCatalog.SaveDecisions(cmd.Context(), docs); err != nil {
			return fmt.Errorf("saving decisions from %s: %w", path, err)
		}
		cmd.Printf("  %s: %d decisions\n", path, len(docs))
		total += len(docs)
	}

	cmd.Printf("Ingested %d decisions.\n", total)
	if total > 0 {
		cmd.Println(`Run "jurisrag index build" to index them.`)
	}
	return nil
}

// readDecisionFile parses one scraper output file by extension.
func readDecisionFile(path string) ([]domain.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return readJSONLines(path)
	case ".json":
		return readJSONArray(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .jsonl or .json)", filepath.Ext(path))
	}
}

func readJSONLines(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []domain.Document
	scanner := bufio.NewScanner(f)
	// Full decision texts routinely exceed the default line limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec decisionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, rec.toDocument())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func readJSONArray(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []decisionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, len(records))
	for i := range records {
		docs[i] = records[i].toDocument()
	}
	return docs, nil
}

func (r decisionRecord) toDocument() domain.Document {
	doc := domain.Document{
		ID:   r.ID,
		Text: r.Text,
		Meta: r.Meta,
	}
	if r.Title != "" {
		doc.Title = domain.StrPtr(r.Title)
	}
	if r.Court != "" {
		doc.Court = domain.StrPtr(r.Court)
	}
	if r.Code != "" {
		doc.Code = domain.StrPtr(r.Code)
	}
	if r.Article != "" {
		doc.Article = domain.StrPtr(r.Article)
	}
	if r.Date != "" {
		doc.Date = domain.StrPtr(r.Date)
	}
	return doc
}
