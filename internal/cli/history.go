package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"payrag/internal/adapter/journal"
	"payrag/internal/port"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded pipeline runs",
	Long: `List runs recorded in the journal, newest first, or show one run by id.
Recording requires journal.enabled in the config.

Examples:
  payrag history
  payrag history -n 3 --json
  payrag history 6f1c2a4e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	path := cfg.JournalPath(GetRootDir())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no journal found at %s. Enable journal.enabled and run a query first", path)
	}

	jr, err := journal.NewBoltJournal(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jr.Close()

	var records []port.RunRecord
	if len(args) == 1 {
		rec, err := jr.Get(args[0])
		if err != nil {
			return err
		}
		records = []port.RunRecord{rec}
	} else {
		records, err = jr.List(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		output, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s  %s  %s\n", r.At.Local().Format("2006-01-02 15:04:05"), r.ID, r.Query)
		fmt.Fprintf(out, "  pool: %d  matched: %d  filled: %d\n", r.PoolSize, r.Matched, r.Filled)
		if len(r.References) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(r.References, "\n  "))
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		fmt.Fprintln(out)
	}
	return nil
}
