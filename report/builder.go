package report

import (
	"bytes"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"emergencycore/completion"
	"emergencycore/config"
	"emergencycore/errors"
)

// promptTemplate is the fixed instruction template every report is
// embedded into. The report text and urgency are inserted verbatim.
const promptTemplate = `Advanced Disaster Analysis Protocol:

Emergency Report: '{{.ReportText}}'
Urgency Level: {{.Urgency}}

Comprehensive Analysis Requirements:
1. Identify precise disaster type
2. Provide detailed severity assessment
3. Outline immediate safety recommendations
4. Develop comprehensive emergency response strategy
5. Suggest resource allocation and prioritization

Analyze with scientific precision and humanitarian insight.`

// ErrEmptyReport is returned when the submitted report text is empty or
// whitespace-only. No completion request is built in that case.
var ErrEmptyReport = errors.NewValidationError("", "Please provide a detailed emergency description.", map[string]interface{}{
	"field": "report_text",
	"error": "must not be empty",
})

type promptData struct {
	ReportText string
	Urgency    string
}

// Builder assembles completion requests from submitted emergency reports.
// It owns the instruction template, the fixed model/token/system settings,
// and optional token budget accounting.
type Builder struct {
	model            string
	maxTokens        int
	systemPrompt     string
	maxContextTokens int
	tmpl             *template.Template
	tokenizer        Tokenizer
	logger           *zap.Logger
}

// NewBuilder creates a builder from the completion configuration. Token
// counting is best effort: if no encoding can be loaded the budget check
// is skipped rather than failing startup.
func NewBuilder(cfg config.CompletionConfig, logger *zap.Logger) *Builder {
	tokenizer, err := NewTokenizer(cfg.Model)
	if err != nil {
		logger.Warn("token counting disabled", zap.Error(err))
		tokenizer = nil
	}

	return &Builder{
		model:            cfg.Model,
		maxTokens:        cfg.MaxTokens,
		systemPrompt:     cfg.SystemPrompt,
		maxContextTokens: cfg.MaxContextTokens,
		tmpl:             template.Must(template.New("report").Parse(promptTemplate)),
		tokenizer:        tokenizer,
		logger:           logger,
	}
}

// WithTokenizer replaces the builder's tokenizer. Used by tests and by
// callers that want deterministic counting.
func (b *Builder) WithTokenizer(t Tokenizer) *Builder {
	b.tokenizer = t
	return b
}

// Build produces the completion request for a report. The urgency string
// is embedded as given; it is deliberately not validated against the tier
// list. Empty or whitespace-only report text returns ErrEmptyReport, and
// a prompt over the context budget returns a validation error; neither
// reaches the network.
func (b *Builder) Build(reportText, urgency string) (*completion.Request, error) {
	if strings.TrimSpace(reportText) == "" {
		return nil, ErrEmptyReport
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, promptData{ReportText: reportText, Urgency: urgency}); err != nil {
		return nil, errors.NewInternalError("", err)
	}
	prompt := buf.String()

	if b.tokenizer != nil && b.maxContextTokens > 0 {
		promptTokens := b.tokenizer.CountTokens(prompt) + b.tokenizer.CountTokens(b.systemPrompt)
		if promptTokens+b.maxTokens > b.maxContextTokens {
			return nil, errors.NewValidationError("", "Report is too long to analyze.", map[string]interface{}{
				"prompt_tokens":      promptTokens,
				"max_context_tokens": b.maxContextTokens,
			})
		}
		b.logger.Debug("prompt built", zap.Int("prompt_tokens", promptTokens))
	}

	return &completion.Request{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System:    b.systemPrompt,
		Messages: []completion.Message{
			{Role: "user", Content: prompt},
		},
	}, nil
}

// PromptTokens counts the tokens of a built request's messages, or -1
// when token counting is disabled. Handlers use it for metrics.
func (b *Builder) PromptTokens(req *completion.Request) int {
	if b.tokenizer == nil {
		return -1
	}
	total := b.tokenizer.CountTokens(req.System)
	for _, msg := range req.Messages {
		total += b.tokenizer.CountTokens(msg.Content)
	}
	return total
}
