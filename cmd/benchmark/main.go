package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"payrag/config"
	"payrag/internal/adapter/llm"
	"payrag/internal/adapter/normalizer"
	"payrag/internal/adapter/searchclient"
	"payrag/internal/adapter/strategy"
	"payrag/internal/domain"
	"payrag/internal/logging"
	"payrag/internal/port"
	"payrag/internal/usecase"
)

func main() {
	configDir := flag.String("dir", ".", "Directory holding payrag.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of pool entries to show")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nReports, per search strategy:")
		fmt.Println("  1. Hit count and latency")
		fmt.Println("  2. Documents no other strategy found")
		fmt.Println("  3. Score distribution of the merged pool")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	executors, err := setupExecutors(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SEARCH STRATEGY BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Backend:    %s\n", cfg.Search.BaseURL)
	fmt.Printf("Collection: %s\n", cfg.Search.Collection)
	fmt.Printf("Search:     %s\n", cfg.Search.SearchType)
	fmt.Println()
	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	orchestrator := usecase.NewOrchestrator(executors, logger)
	ctx := context.Background()

	// Run each strategy alone so latencies are not shared.
	var results []domain.SearchStrategyResult
	for _, st := range domain.Strategies {
		start := time.Now()
		r := orchestrator.Run(ctx, *query, []domain.Strategy{st}, nil)[0]
		elapsed := time.Since(start)
		results = append(results, r)

		if r.Err != nil {
			fmt.Printf("%-9s FAILED after %s: %v\n", st, elapsed.Round(time.Millisecond), r.Err)
			continue
		}
		fmt.Printf("%-9s %3d hits in %s\n", st, len(r.Candidates), elapsed.Round(time.Millisecond))
	}
	fmt.Println()

	for i, r := range results {
		unique := uniqueDocuments(r, results, i)
		if r.Err != nil || len(unique) == 0 {
			continue
		}
		fmt.Printf("Only %s found: %s\n", r.Strategy, strings.Join(unique, "; "))
	}

	pool := usecase.NewAggregator(cfg.Retrieve.ExcludeDocuments, logger).Aggregate(results)
	if len(pool) == 0 {
		fmt.Println("\nNo results from any strategy.")
		return
	}

	fmt.Printf("\nMerged pool: %d candidates. Top %d:\n\n", len(pool), min(*topK, len(pool)))

	totalScore := 0.0
	for i, c := range pool {
		totalScore += c.Score
		if i >= *topK {
			continue
		}
		preview := strings.ReplaceAll(normalizer.Preview(c.Content, 150), "\n", " ")
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, c.Strategy, c.Score, c.Reference)
		fmt.Printf("   %s\n\n", preview)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("POOL METRICS:\n")
	fmt.Printf("  Average score: %.3f\n", totalScore/float64(len(pool)))
	fmt.Printf("  Top-1 score:   %.3f\n", pool[0].Score)
	fmt.Printf("  Min picked:    %d of %d considered\n", cfg.Select.MinPickedDocuments, min(cfg.Select.MaxDocumentsConsidered, len(pool)))
}

// uniqueDocuments lists document names in results[idx] that no other result
// contains.
func uniqueDocuments(r domain.SearchStrategyResult, results []domain.SearchStrategyResult, idx int) []string {
	others := make(map[string]bool)
	for i, o := range results {
		if i == idx {
			continue
		}
		for _, c := range o.Candidates {
			others[c.DocumentName] = true
		}
	}

	seen := make(map[string]bool)
	var unique []string
	for _, c := range r.Candidates {
		if others[c.DocumentName] || seen[c.DocumentName] {
			continue
		}
		seen[c.DocumentName] = true
		unique = append(unique, c.DocumentName)
	}
	return unique
}

func setupExecutors(cfg *config.Config, logger *zap.Logger) ([]port.StrategyExecutor, error) {
	backend, err := searchclient.New(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search client init failed: %w", err)
	}

	var model port.LLM
	if chat, err := llm.NewOpenAIClient(cfg.LLM); err == nil {
		model = chat
	} else {
		fmt.Fprintf(os.Stderr, "Keyword strategy uses local terms: %v\n", err)
	}

	extractor, err := llm.NewKeywordExtractor(model, cfg.LLM.KeywordCacheSize, logger)
	if err != nil {
		return nil, err
	}
	return strategy.ForConfig(cfg, backend, extractor), nil
}
