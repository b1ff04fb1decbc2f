package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"payrag/internal/domain"
)

var (
	queryText       string
	queryJSON       bool
	queryStrategies string
	querySearchType string
	queryFilters    map[string]string
	queryNoJournal  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve and select documents for a question",
	Long: `Run the retrieval pipeline for one question: fan out to the enabled search
strategies, merge and rank the hits, let the model pick the relevant documents
and print them as numbered chunks with references.

Examples:
  payrag query -q "What is the USD cut-off for same-day value?"
  payrag query -q "MT103 field 71A" --strategies vector,keyword --json
  payrag query -q "BRL purpose codes" --search-type hybrid --filter reRanker=semantic`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to answer (required)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryStrategies, "strategies", "", "comma-separated strategies to run (default from config)")
	queryCmd.Flags().StringVar(&querySearchType, "search-type", "", "override search type: semantic, keyword or hybrid")
	queryCmd.Flags().StringToStringVar(&queryFilters, "filter", nil, "backend filter key=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryNoJournal, "no-journal", false, "do not record this run in the journal")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := applyStrategyFlag(cfg, queryStrategies); err != nil {
		return err
	}

	pipeline, closeJournal, err := buildPipeline(cfg, !queryNoJournal)
	if err != nil {
		return err
	}
	defer closeJournal()

	answer, err := pipeline.Run(cmd.Context(), queryText, buildFilters(queryFilters, querySearchType))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		output, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}

	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer domain.Answer) {
	out := cmd.OutOrStdout()
	for _, w := range answer.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if len(answer.Chunks) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return
	}

	fmt.Fprintf(out, "Selected %d documents for: %s\n\n", len(answer.Chunks), answer.Query)
	for _, c := range answer.Chunks {
		fmt.Fprintf(out, "--- [%d] %s (score: %.3f) ---\n", c.ReferenceID, c.Reference, c.Score)
		fmt.Fprintln(out, c.Content)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "References:")
	for _, r := range answer.References {
		fmt.Fprintf(out, "  %s\n", r)
	}
}
