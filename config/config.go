package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"payrag/internal/domain"
)

// EnvSearchURL overrides Search.BaseURL when set.
const EnvSearchURL = "PAYRAG_SEARCH_URL"

// Config holds all configuration for the retrieval pipeline.
type Config struct {
	Search     SearchConfig   `yaml:"search"`
	Strategies StrategyConfig `yaml:"strategies"`
	Select     SelectConfig   `yaml:"select"`
	Assemble   AssembleConfig `yaml:"assemble"`
	Retrieve   RetrieveConfig `yaml:"retrieve"`
	LLM        LLMConfig      `yaml:"llm"`
	Journal    JournalConfig  `yaml:"journal"`
	Logging    LoggingConfig  `yaml:"logging"`
}

// SearchConfig holds search backend configuration.
type SearchConfig struct {
	BaseURL            string        `yaml:"base_url"`
	APIKeyEnv          string        `yaml:"api_key_env"` // Environment variable for API key
	Collection         string        `yaml:"collection"`
	DefaultSearchCount int           `yaml:"default_search_count"`
	SearchType         string        `yaml:"search_type"` // "semantic", "keyword", "hybrid"
	ReRanker           string        `yaml:"re_ranker"`   // required when search_type is hybrid
	Fields             []string      `yaml:"fields"`
	Timeout            time.Duration `yaml:"timeout"`
}

// StrategyConfig enables individual search strategies.
type StrategyConfig struct {
	Vector          bool           `yaml:"vector"`
	Keyword         bool           `yaml:"keyword"`
	Question        bool           `yaml:"question"`
	QuestionFilters map[string]any `yaml:"question_filters"`
}

// SelectConfig bounds document selection.
type SelectConfig struct {
	MaxDocumentsConsidered int `yaml:"max_documents_considered"`
	MinPickedDocuments     int `yaml:"min_picked_documents"`
	PreviewRunes           int `yaml:"preview_runes"`
}

// AssembleConfig holds answer assembly configuration.
type AssembleConfig struct {
	ChunkLimit int `yaml:"chunk_limit"`
}

// RetrieveConfig holds aggregation configuration.
type RetrieveConfig struct {
	ExcludeDocuments []string `yaml:"exclude_documents"` // doublestar globs over document link path or name
}

// LLMConfig holds configuration for the keyword-extraction and selection model.
type LLMConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	Timeout          time.Duration `yaml:"timeout"`
	KeywordCacheSize int           `yaml:"keyword_cache_size"`
}

// JournalConfig holds run journal configuration.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // relative paths resolve against the root directory
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			APIKeyEnv:          "PAYRAG_SEARCH_API_KEY",
			Collection:         "payments-ops",
			DefaultSearchCount: 10,
			SearchType:         domain.SearchTypeSemantic,
			Fields: []string{
				"title", "hyperlink", "sectionTitle", "sectionHyperlink",
				"content", "page", "citationIndexs", "score", "rerank_score",
			},
			Timeout: 30 * time.Second,
		},
		Strategies: StrategyConfig{
			Vector:   true,
			Keyword:  true,
			Question: true,
		},
		Select: SelectConfig{
			MaxDocumentsConsidered: 20,
			MinPickedDocuments:     3,
			PreviewRunes:           200,
		},
		Assemble: AssembleConfig{
			ChunkLimit: 8,
		},
		LLM: LLMConfig{
			BaseURL:          "https://api.openai.com/v1",
			Model:            "gpt-4o-mini",
			APIKeyEnv:        "OPENAI_API_KEY",
			Timeout:          60 * time.Second,
			KeywordCacheSize: 256,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(".payrag", "journal.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// EnabledStrategies returns the enabled strategies in declaration order.
func (s StrategyConfig) EnabledStrategies() []domain.Strategy {
	var enabled []domain.Strategy
	for _, st := range domain.Strategies {
		switch {
		case st == domain.StrategyVector && s.Vector,
			st == domain.StrategyKeyword && s.Keyword,
			st == domain.StrategyQuestion && s.Question:
			enabled = append(enabled, st)
		}
	}
	return enabled
}

// Validate checks settings that would otherwise fail on every query.
// Search type and re-ranker consistency is checked per request by the
// strategy executors, since filters may override the search type.
func (c *Config) Validate() error {
	if c.Search.DefaultSearchCount <= 0 {
		return domain.NewConfigurationError("search", "default_search_count must be positive, got %d", c.Search.DefaultSearchCount)
	}
	if c.Select.MinPickedDocuments < 0 {
		return domain.NewConfigurationError("select", "min_picked_documents must not be negative, got %d", c.Select.MinPickedDocuments)
	}
	if c.Select.MaxDocumentsConsidered > 0 && c.Select.MinPickedDocuments > c.Select.MaxDocumentsConsidered {
		return domain.NewConfigurationError("select", "min_picked_documents (%d) exceeds max_documents_considered (%d)",
			c.Select.MinPickedDocuments, c.Select.MaxDocumentsConsidered)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for payrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "payrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".payrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSearchURL); v != "" {
		c.Search.BaseURL = v
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// JournalPath resolves the journal database path against dir.
func (c *Config) JournalPath(dir string) string {
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(dir, c.Journal.Path)
}
