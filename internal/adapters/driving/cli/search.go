package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

var (
	searchK       int
	searchJSON    bool
	searchCourt   string
	searchCode    string
	searchArticle string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed court decisions",
	Long: `Performs semantic search across the indexed corpus and prints the
best-matching decision excerpts with their raw similarity scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "limit", "n", domain.DefaultK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchCourt, "court", "", "filter by court (e.g. STF, TJSP)")
	searchCmd.Flags().StringVar(&searchCode, "code", "", "filter by statute code (e.g. CPP)")
	searchCmd.Flags().StringVar(&searchArticle, "article", "", "filter by article number")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	results, err := retrievalService.Search(cmd.Context(), args[0], domain.SearchOptions{
		K:       searchK,
		Filters: searchFilters(),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// searchFilters collects the non-empty filter flags.
func searchFilters() map[string]string {
	filters := make(map[string]string)
	if searchCourt != "" {
		filters["court"] = searchCourt
	}
	if searchCode != "" {
		filters["code"] = searchCode
	}
	if searchArticle != "" {
		filters["article"] = searchArticle
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		doc := results[i].Document
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, resultHeading(doc), results[i].Score)
		if snippet := excerpt(doc.Text, 200); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// resultHeading formats "COURT Title, art. N do CODE" from whatever
// metadata the decision carries, falling back to the chunk ID.
func resultHeading(doc domain.Document) string {
	heading := ""
	if court := domain.StrVal(doc.Court); court != "" {
		heading = court
	}
	if title := domain.StrVal(doc.Title); title != "" {
		if heading != "" {
			heading += " "
		}
		heading += title
	}
	if article := domain.StrVal(doc.Article); article != "" {
		ref := "art. " + article
		if code := domain.StrVal(doc.Code); code != "" {
			ref += " do " + code
		}
		if heading != "" {
			heading += ", "
		}
		heading += ref
	}
	if heading == "" {
		heading = doc.ID
	}
	return heading
}

// excerpt truncates text to at most limit runes on a rune boundary.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
