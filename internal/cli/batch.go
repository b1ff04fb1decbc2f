package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"payrag/internal/domain"
)

var (
	batchOutput     string
	batchWorkers    int
	batchStrategies string
	batchNoProgress bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <glob>...",
	Short: "Answer every question in a set of files",
	Long: `Run the pipeline for each question found in the files matching the given
doublestar globs. Files hold one question per line; blank lines and lines
starting with # are skipped. Answers are written as JSON Lines in input order.

Examples:
  payrag batch "questions/*.txt"
  payrag batch "ops/**/faq-*.txt" -o answers.jsonl --workers 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output file (default stdout)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "questions answered concurrently")
	batchCmd.Flags().StringVar(&batchStrategies, "strategies", "", "comma-separated strategies to run (default from config)")
	batchCmd.Flags().BoolVar(&batchNoProgress, "no-progress", false, "disable the progress bar")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()
	if err := applyStrategyFlag(cfg, batchStrategies); err != nil {
		return err
	}

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(args, ", "))
	}

	var queries []string
	for _, f := range files {
		qs, err := readQueries(f)
		if err != nil {
			return err
		}
		queries = append(queries, qs...)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no questions found in %d files", len(files))
	}

	pipeline, closeJournal, err := buildPipeline(cfg, true)
	if err != nil {
		return err
	}
	defer closeJournal()

	bar := newBatchBar(len(queries), batchNoProgress)

	answers := make([]domain.Answer, len(queries))
	g, ctx := errgroup.WithContext(cmd.Context())
	if batchWorkers > 0 {
		g.SetLimit(batchWorkers)
	}
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			answer, err := pipeline.Run(ctx, q, nil)
			if err != nil {
				log.Warn("Skipping question", zap.String("query", q), zap.Error(err))
				answer = domain.Answer{Query: q, Warnings: []string{err.Error()}}
			}
			answers[i] = answer
			_ = bar.Add(1)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	_ = bar.Finish()

	var out io.Writer = cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeJSONL(out, answers); err != nil {
		return err
	}

	log.Info("Batch complete", zap.Int("files", len(files)), zap.Int("questions", len(queries)))
	return nil
}

// expandGlobs resolves each pattern against the filesystem, keeping first
// occurrence order and dropping duplicates.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return queries, nil
}

func writeJSONL(w io.Writer, answers []domain.Answer) error {
	enc := json.NewEncoder(w)
	for _, a := range answers {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("failed to write answer: %w", err)
		}
	}
	return nil
}

func newBatchBar(total int, silent bool) *progressbar.ProgressBar {
	if silent {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Answering[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
