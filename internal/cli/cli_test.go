package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrag/config"
	"payrag/internal/adapter/llm"
	"payrag/internal/domain"
)

func TestApplyStrategyFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, applyStrategyFlag(cfg, "question, Vector"))
	assert.Equal(t, []domain.Strategy{domain.StrategyVector, domain.StrategyQuestion}, cfg.Strategies.EnabledStrategies())

	cfg = config.DefaultConfig()
	require.NoError(t, applyStrategyFlag(cfg, ""))
	assert.Len(t, cfg.Strategies.EnabledStrategies(), 3)

	assert.Error(t, applyStrategyFlag(config.DefaultConfig(), "vector,bm25"))
}

func TestBuildFilters(t *testing.T) {
	assert.Nil(t, buildFilters(nil, ""))

	f := buildFilters(map[string]string{"region": "EMEA"}, "hybrid")
	assert.Equal(t, domain.Filters{"region": "EMEA", "search_type": "hybrid"}, f)
}

func TestExpandGlobsAndReadQueries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ops", "fx"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops", "mt103.txt"),
		[]byte("# SWIFT\nWhat goes in field 70?\n\n  Is field 71A mandatory?  \n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops", "fx", "cutoffs.txt"),
		[]byte("USD cut-off?\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops", "notes.md"), []byte("ignored\n"), 0644))

	pattern := filepath.ToSlash(filepath.Join(dir, "ops", "**", "*.txt"))
	files, err := expandGlobs([]string{pattern, pattern})
	require.NoError(t, err)
	require.Len(t, files, 2)

	var queries []string
	for _, f := range files {
		qs, err := readQueries(f)
		require.NoError(t, err)
		queries = append(queries, qs...)
	}
	assert.ElementsMatch(t, []string{"What goes in field 70?", "Is field 71A mandatory?", "USD cut-off?"}, queries)
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSONL(&buf, []domain.Answer{
		{Query: "a", Chunks: []domain.Chunk{}, References: []string{}},
		{Query: "b", Chunks: []domain.Chunk{}, References: []string{}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"{\"query\":\"a\",\"chunks\":[],\"references\":[]}\n{\"query\":\"b\",\"chunks\":[],\"references\":[]}\n",
		buf.String())
}

func TestRenderPrompt(t *testing.T) {
	page := 4
	out, err := renderPrompt("templates/answer_prompt.txt", PromptData{
		Query: "What goes in field 70?",
		Chunks: []domain.Chunk{{
			ReferenceID: 1, DocumentName: "MT103 Guide", Page: &page,
			Content: "Remittance information, 4*35x.", Reference: "MT103 Guide ▸ Field 70 (p.4)",
		}},
		References: []string{"[1] MT103 Guide, p. 4"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "## Question\nWhat goes in field 70?")
	assert.Contains(t, out, "### [1] MT103 Guide ▸ Field 70 (p.4)\nRemittance information, 4*35x.")
	assert.Contains(t, out, "[1] MT103 Guide, p. 4")

	system, user := llm.SelectionPrompt("Document: A (Page: 1)\nContent Preview: a\n\n", "q")
	sel, err := renderPrompt("templates/selection_prompt.txt", PromptData{Query: "q", System: system, User: user})
	require.NoError(t, err)
	assert.Equal(t, "## System\n"+system+"\n\n## User\n"+user+"\n", sel)

	_, err = renderPrompt("templates/missing.txt", PromptData{})
	assert.Error(t, err)
}
