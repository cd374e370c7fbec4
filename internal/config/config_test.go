package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/format"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.MaxProblems)
	assert.Equal(t, "off", cfg.Trace)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Equal(t, format.DefaultOptions(), cfg.FormatOptions(nil))
	assert.True(t, cfg.Diagnostics.UnusedVariables)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
maxProblems: 20
exclude:
  - "generated/**"
format:
  keywordCase: lower
  indentSize: 2
diagnostics:
  unusedVariables: false
`))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MaxProblems)
	assert.Equal(t, []string{"generated/**"}, cfg.Exclude)
	assert.Equal(t, "lower", cfg.Format.KeywordCase)
	assert.Equal(t, 2, cfg.Format.IndentSize)
	// Unset keys keep their defaults.
	assert.True(t, cfg.Format.AlignVarBlocks)
	assert.False(t, cfg.Diagnostics.UnusedVariables)
	assert.True(t, cfg.Diagnostics.TypeMismatch)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"keyword case", "format:\n  keywordCase: title\n", ErrInvalidKeywordCase},
		{"indent", "format:\n  indentSize: 0\n", ErrInvalidValue},
		{"max problems", "maxProblems: -1\n", ErrInvalidValue},
		{"trace", "trace: loud\n", ErrInvalidValue},
		{"exclude glob", "exclude: ['[']\n", ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Parse([]byte("maxProblems: [1"))
	assert.Error(t, err)
}

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadWorkspace(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("debounceMs: 50\n"), 0o644))
	cfg, err = LoadWorkspace(dir)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce())

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("format: {keywordCase: camel}\n"), 0o644))
	cfg, err = LoadWorkspace(dir)
	assert.ErrorIs(t, err, ErrInvalidKeywordCase)
	assert.Equal(t, Default(), cfg)
}

func TestApplySettings(t *testing.T) {
	cfg := Default()

	err := cfg.ApplySettings(map[string]any{
		SettingsKey: map[string]any{
			"maxProblems": float64(5),
			"trace":       "verbose",
			"format":      map[string]any{"operatorSpacing": false},
		},
		"other-server": map[string]any{"maxProblems": float64(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxProblems)
	assert.Equal(t, "verbose", cfg.Trace)
	assert.False(t, cfg.Format.OperatorSpacing)
	assert.Equal(t, "upper", cfg.Format.KeywordCase)
}

func TestApplySettingsKeepsPreviousOnError(t *testing.T) {
	cfg := Default()
	cfg.MaxProblems = 7

	err := cfg.ApplySettings(map[string]any{
		SettingsKey: map[string]any{
			"maxProblems": float64(9),
			"format":      map[string]any{"keywordCase": "shout"},
		},
	})
	require.ErrorIs(t, err, ErrInvalidKeywordCase)
	assert.Equal(t, 7, cfg.MaxProblems)
}

func TestApplySettingsIgnoresForeignShapes(t *testing.T) {
	cfg := Default()

	assert.NoError(t, cfg.ApplySettings(nil))
	assert.NoError(t, cfg.ApplySettings("off"))
	assert.NoError(t, cfg.ApplySettings(map[string]any{SettingsKey: "yes"}))
	assert.Equal(t, Default(), cfg)
}

func TestFormatOptionsFromClient(t *testing.T) {
	cfg := Default()

	opts := cfg.FormatOptions(protocol.FormattingOptions{
		protocol.FormattingOptionTabSize:                float64(2),
		protocol.FormattingOptionInsertSpaces:           false,
		protocol.FormattingOptionTrimTrailingWhitespace: false,
		protocol.FormattingOptionInsertFinalNewline:     false,
	})

	assert.Equal(t, 2, opts.IndentSize)
	assert.False(t, opts.InsertSpaces)
	assert.False(t, opts.TrimTrailingWhitespace)
	assert.False(t, opts.InsertFinalNewline)
	assert.Equal(t, format.KeywordCaseUpper, opts.KeywordCase)
}

func TestAnalysisOptions(t *testing.T) {
	cfg := Default()
	cfg.Diagnostics.MissingSemicolon = false
	cfg.MaxProblems = 3

	opts := cfg.AnalysisOptions()
	assert.False(t, opts.MissingSemicolon)
	assert.True(t, opts.UnusedVariables)
	assert.Equal(t, 3, opts.MaxProblems)
	assert.Nil(t, opts.IsKnown)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{"a"}

	cp := cfg.Clone()
	cp.Exclude[0] = "b"
	cp.Format.IndentSize = 8

	assert.Equal(t, "a", cfg.Exclude[0])
	assert.Equal(t, 4, cfg.Format.IndentSize)
}
