package cli

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"payrag/config"
	"payrag/internal/adapter/journal"
	"payrag/internal/adapter/llm"
	"payrag/internal/adapter/searchclient"
	"payrag/internal/adapter/strategy"
	"payrag/internal/domain"
	"payrag/internal/port"
	"payrag/internal/usecase"
)

// buildPipeline wires adapters from the loaded config. A missing search URL or
// model key does not abort: the affected strategies report configuration
// errors as warnings on each answer. The returned closer releases the journal.
func buildPipeline(cfg *config.Config, withJournal bool) (*usecase.Pipeline, func(), error) {
	log := GetLogger()

	var backend port.SearchBackend
	client, err := searchclient.New(cfg.Search)
	if err != nil {
		if !domain.IsConfiguration(err) {
			return nil, nil, err
		}
		log.Warn("Search backend not configured", zap.Error(err))
	} else {
		backend = client
	}

	var model port.LLM
	chat, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		log.Warn("Language model not configured, using local keywords and top-ranked selection", zap.Error(err))
	} else {
		model = chat
	}

	extractor, err := llm.NewKeywordExtractor(model, cfg.LLM.KeywordCacheSize, log)
	if err != nil {
		return nil, nil, err
	}

	var picker port.DocumentPicker
	if model != nil {
		picker = llm.NewDocumentPicker(model)
	}

	var jr port.Journal
	closer := func() {}
	if withJournal && cfg.Journal.Enabled {
		bj, err := journal.NewBoltJournal(cfg.JournalPath(GetRootDir()))
		if err != nil {
			log.Warn("Run journal unavailable", zap.Error(err))
		} else {
			jr = bj
			closer = func() { bj.Close() }
		}
	}

	executors := strategy.ForConfig(cfg, backend, extractor)
	return usecase.NewPipeline(cfg, executors, picker, jr, log), closer, nil
}

// applyStrategyFlag replaces the configured strategy set with a
// comma-separated list such as "vector,question".
func applyStrategyFlag(cfg *config.Config, list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	cfg.Strategies.Vector = false
	cfg.Strategies.Keyword = false
	cfg.Strategies.Question = false
	for _, name := range strings.Split(list, ",") {
		switch domain.Strategy(strings.ToLower(strings.TrimSpace(name))) {
		case domain.StrategyVector:
			cfg.Strategies.Vector = true
		case domain.StrategyKeyword:
			cfg.Strategies.Keyword = true
		case domain.StrategyQuestion:
			cfg.Strategies.Question = true
		case "":
		default:
			return fmt.Errorf("unknown strategy %q (want vector, keyword or question)", name)
		}
	}
	return nil
}

// buildFilters merges --filter pairs and the --search-type override.
func buildFilters(pairs map[string]string, searchType string) domain.Filters {
	if len(pairs) == 0 && searchType == "" {
		return nil
	}
	filters := make(domain.Filters, len(pairs)+1)
	for k, v := range pairs {
		filters[k] = v
	}
	if searchType != "" {
		filters["search_type"] = searchType
	}
	return filters
}
