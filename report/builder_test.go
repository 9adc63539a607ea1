package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"emergencycore/config"
	"emergencycore/errors"
)

// countingTokenizer counts one token per byte, making budget arithmetic
// trivial to reason about in tests.
type countingTokenizer struct{}

func (countingTokenizer) CountTokens(text string) int { return len(text) }

func testBuilder(t *testing.T, cfg config.CompletionConfig) *Builder {
	t.Helper()
	b := NewBuilder(cfg, zaptest.NewLogger(t))
	return b.WithTokenizer(nil)
}

func completionConfig() config.CompletionConfig {
	cfg := config.DefaultConfig().Completion
	cfg.Provider = "stub"
	return cfg
}

func TestBuildEmptyReport(t *testing.T) {
	b := testBuilder(t, completionConfig())

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := b.Build(text, "High")
		require.Error(t, err)
		assert.Equal(t, errors.ValidationError, errors.KindOf(err))

		var coreErr *errors.CoreError
		require.True(t, errors.As(err, &coreErr))
		assert.Equal(t, "Please provide a detailed emergency description.", coreErr.Message)
	}
}

func TestBuildEmbedsReportVerbatim(t *testing.T) {
	b := testBuilder(t, completionConfig())

	req, err := b.Build("Flooding near the river, two streets under water.", "High")
	require.NoError(t, err)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content,
		"Emergency Report: 'Flooding near the river, two streets under water.'")
	assert.Contains(t, req.Messages[0].Content, "Urgency Level: High")
	assert.Contains(t, req.Messages[0].Content, "Advanced Disaster Analysis Protocol:")

	assert.Equal(t, "grok-beta", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.Contains(t, req.System, "disaster response coordinator")
}

func TestBuildUrgencyNotValidated(t *testing.T) {
	b := testBuilder(t, completionConfig())

	req, err := b.Build("gas leak", "Catastrophic")
	require.NoError(t, err)
	assert.Contains(t, req.Messages[0].Content, "Urgency Level: Catastrophic")
}

func TestBuildRejectsOverBudgetPrompt(t *testing.T) {
	cfg := completionConfig()
	cfg.MaxContextTokens = 100
	b := NewBuilder(cfg, zaptest.NewLogger(t)).WithTokenizer(countingTokenizer{})

	_, err := b.Build("short report", "High")
	require.Error(t, err)
	assert.Equal(t, errors.ValidationError, errors.KindOf(err))

	var coreErr *errors.CoreError
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, "Report is too long to analyze.", coreErr.Message)
}

func TestBuildWithinBudget(t *testing.T) {
	cfg := completionConfig()
	cfg.MaxContextTokens = 100000
	b := NewBuilder(cfg, zaptest.NewLogger(t)).WithTokenizer(countingTokenizer{})

	_, err := b.Build("short report", "High")
	assert.NoError(t, err)
}

func TestPromptTokens(t *testing.T) {
	cfg := completionConfig()
	b := NewBuilder(cfg, zaptest.NewLogger(t)).WithTokenizer(countingTokenizer{})

	req, err := b.Build("fire downtown", "High")
	require.NoError(t, err)
	assert.Equal(t,
		len(req.System)+len(req.Messages[0].Content),
		b.PromptTokens(req))

	b.WithTokenizer(nil)
	assert.Equal(t, -1, b.PromptTokens(req))
}
