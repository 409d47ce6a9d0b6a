package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

var (
	queryK        int
	queryJSON     bool
	queryNoAnswer bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a legal question against the corpus",
	Long: `Runs the full retrieval pipeline: semantic search, relevance scoring
and a coverage verdict, then composes an answer grounded in the
retrieved excerpts.

When coverage is low the model is not called; the command reports the
gap and suggests query refinements instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "limit", "n", domain.DefaultK, "maximum number of excerpts")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryNoAnswer, "no-answer", false, "skip answer composition, print the scored excerpts only")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}

	bundle, err := retrievalService.Query(cmd.Context(), args[0], domain.SearchOptions{K: queryK})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var answer *driven.Answer
	if !queryNoAnswer {
		if answerComposer == nil {
			return errors.New("answer composer not configured")
		}
		a, err := answerComposer.Compose(cmd.Context(), *bundle)
		if err != nil {
			return fmt.Errorf("composing answer: %w", err)
		}
		answer = &a
	}

	if queryJSON {
		return outputQueryJSON(cmd, bundle, answer)
	}
	return outputQueryText(cmd, bundle, answer)
}

func outputQueryJSON(cmd *cobra.Command, bundle *domain.RelevanceBundle, answer *driven.Answer) error {
	payload := struct {
		Coverage    string                `json:"coverage"`
		Results     []domain.ScoredResult `json:"results"`
		Answer      string                `json:"answer,omitempty"`
		Grounded    bool                  `json:"grounded"`
		Suggestions []string              `json:"suggestions,omitempty"`
	}{
		Coverage: string(bundle.Coverage),
		Results:  bundle.Results,
	}
	if answer != nil {
		payload.Answer = answer.Text
		payload.Grounded = answer.Grounded
		payload.Suggestions = answer.Suggestions
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, bundle *domain.RelevanceBundle, answer *driven.Answer) error {
	cmd.Printf("Coverage: %s\n", bundle.Coverage)
	cmd.Println()

	if answer != nil {
		cmd.Println(answer.Text)
		cmd.Println()
		for _, s := range answer.Suggestions {
			cmd.Printf("  - %s\n", s)
		}
		if len(answer.Suggestions) > 0 {
			cmd.Println()
		}
	}

	if len(bundle.Results) == 0 {
		return nil
	}
	cmd.Println("Excerpts:")
	cmd.Println()
	for i := range bundle.Results {
		r := bundle.Results[i]
		cmd.Printf("  [%d] %s (score %.2f, relevance %.0f%%)\n",
			i+1, resultHeading(r.Document), r.Score, r.Relevance)
		if snippet := excerpt(r.Document.Text, 200); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}
