package cli

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"payrag/internal/adapter/llm"
	"payrag/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	promptQuery      string
	promptStage      string
	promptStrategies string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the model prompts for a question",
	Long: `Render a model prompt for inspection or manual orchestration.

Use --stage select for the document-selection system and user prompts, exactly as
the document picker sends them.
Use --stage answer for the answer-generation prompt built from the selected chunks.

Examples:
  payrag prompt -q "USD cut-off times"
  payrag prompt -q "MT103 field 70 length" --stage answer`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	promptCmd.Flags().StringVar(&promptStage, "stage", "select", "prompt to render: select or answer")
	promptCmd.Flags().StringVar(&promptStrategies, "strategies", "", "comma-separated strategies to run (default from config)")
	promptCmd.MarkFlagRequired("query")
}

// PromptData is the template input for both prompt stages. System and User
// hold the selection prompts exactly as the document picker sends them.
type PromptData struct {
	Query      string
	System     string
	User       string
	Chunks     []domain.Chunk
	References []string
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := applyStrategyFlag(cfg, promptStrategies); err != nil {
		return err
	}

	pipeline, closeJournal, err := buildPipeline(cfg, false)
	if err != nil {
		return err
	}
	defer closeJournal()

	data := PromptData{Query: strings.TrimSpace(promptQuery)}
	var templateName string
	switch promptStage {
	case "select":
		templateName = "templates/selection_prompt.txt"
		var block string
		block, err = pipeline.Frame(cmd.Context(), promptQuery, nil)
		data.System, data.User = llm.SelectionPrompt(block, data.Query)
	case "answer":
		templateName = "templates/answer_prompt.txt"
		var answer domain.Answer
		answer, err = pipeline.Run(cmd.Context(), promptQuery, nil)
		data.Chunks = answer.Chunks
		data.References = answer.References
	default:
		return fmt.Errorf("unknown stage %q (want select or answer)", promptStage)
	}
	if err != nil {
		return err
	}

	rendered, err := renderPrompt(templateName, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

func renderPrompt(name string, data PromptData) (string, error) {
	tmplContent, err := promptTemplates.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Funcs(templateFuncs()).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"formatChunks": func(chunks []domain.Chunk) string {
			var sb strings.Builder
			for _, c := range chunks {
				sb.WriteString(fmt.Sprintf("### [%d] %s\n", c.ReferenceID, c.Reference))
				sb.WriteString(c.Content)
				sb.WriteString("\n\n")
			}
			return sb.String()
		},
	}
}
