// Package config holds the server settings and the rules for merging them
// from the workspace file, the client and individual formatting requests.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gopkg.in/yaml.v3"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/format"
)

var log = commonlog.GetLogger("st-lsp.config")

// FileName is the workspace configuration file looked up at the root.
const FileName = ".st-lsp.yaml"

// SettingsKey is the namespace of the client settings object.
const SettingsKey = "st-lsp"

var (
	// ErrInvalidKeywordCase indicates a keyword case other than upper, lower
	// or preserve.
	ErrInvalidKeywordCase = errors.New("invalid keyword case")

	// ErrInvalidValue indicates a numeric or enumerated setting out of range.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config represents the server configuration.
type Config struct {
	MaxProblems int      `yaml:"maxProblems"`
	Trace       string   `yaml:"trace"`
	DebounceMs  int      `yaml:"debounceMs"`
	Exclude     []string `yaml:"exclude"`

	Format      FormatConfig      `yaml:"format"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

type FormatConfig struct {
	KeywordCase            string `yaml:"keywordCase"`
	IndentSize             int    `yaml:"indentSize"`
	InsertSpaces           bool   `yaml:"insertSpaces"`
	OperatorSpacing        bool   `yaml:"operatorSpacing"`
	AlignVarBlocks         bool   `yaml:"alignVarBlocks"`
	TrimTrailingWhitespace bool   `yaml:"trimTrailingWhitespace"`
	InsertFinalNewline     bool   `yaml:"insertFinalNewline"`
}

// DiagnosticsConfig switches the semantic checks. Structural checks always
// run.
type DiagnosticsConfig struct {
	UnusedVariables      bool `yaml:"unusedVariables"`
	UndefinedIdentifiers bool `yaml:"undefinedIdentifiers"`
	TypeMismatch         bool `yaml:"typeMismatch"`
	MissingSemicolon     bool `yaml:"missingSemicolon"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxProblems: analysis.DefaultMaxProblems,
		Trace:       "off",
		DebounceMs:  300,
		Format: FormatConfig{
			KeywordCase:            string(format.KeywordCaseUpper),
			IndentSize:             4,
			InsertSpaces:           true,
			OperatorSpacing:        true,
			AlignVarBlocks:         true,
			TrimTrailingWhitespace: true,
			InsertFinalNewline:     true,
		},
		Diagnostics: DiagnosticsConfig{
			UnusedVariables:      true,
			UndefinedIdentifiers: true,
			TypeMismatch:         true,
			MissingSemicolon:     true,
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Exclude = append([]string(nil), c.Exclude...)
	return &cp
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !format.KeywordCase(c.Format.KeywordCase).Valid() {
		return fmt.Errorf("%w: %q (want upper, lower or preserve)", ErrInvalidKeywordCase, c.Format.KeywordCase)
	}
	if c.Format.IndentSize < 1 || c.Format.IndentSize > 16 {
		return fmt.Errorf("%w: indentSize %d", ErrInvalidValue, c.Format.IndentSize)
	}
	if c.MaxProblems < 0 {
		return fmt.Errorf("%w: maxProblems %d", ErrInvalidValue, c.MaxProblems)
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("%w: debounceMs %d", ErrInvalidValue, c.DebounceMs)
	}
	switch protocol.TraceValue(c.Trace) {
	case protocol.TraceValueOff, protocol.TraceValueMessage, "messages", protocol.TraceValueVerbose:
	default:
		return fmt.Errorf("%w: trace %q", ErrInvalidValue, c.Trace)
	}
	for _, pattern := range c.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %s", ErrInvalidValue, pattern, err)
		}
	}
	return nil
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorkspace reads FileName from root. A missing file yields the
// defaults; a broken one is reported and the defaults are used.
func LoadWorkspace(root string) (*Config, error) {
	if root == "" {
		return Default(), nil
	}
	path := filepath.Join(root, FileName)
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded configuration from %s", path)
	return cfg, nil
}

// ApplySettings merges the client settings object sent with
// workspace/didChangeConfiguration. Only the SettingsKey namespace is read.
// On error c is left unchanged.
func (c *Config) ApplySettings(settings any) error {
	root, ok := settings.(map[string]any)
	if !ok {
		return nil
	}
	ns, ok := root[SettingsKey].(map[string]any)
	if !ok {
		return nil
	}

	// Round-tripping through YAML reuses the struct tags for the merge.
	data, err := yaml.Marshal(ns)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	next := c.Clone()
	if err := yaml.Unmarshal(data, next); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// Debounce returns the quiet interval before an edited document is
// re-indexed.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// AnalysisOptions returns the diagnostic options. IsKnown is left for the
// caller to bind to its index.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		UnusedVariables:      c.Diagnostics.UnusedVariables,
		UndefinedIdentifiers: c.Diagnostics.UndefinedIdentifiers,
		TypeMismatch:         c.Diagnostics.TypeMismatch,
		MissingSemicolon:     c.Diagnostics.MissingSemicolon,
		MaxProblems:          c.MaxProblems,
	}
}

// FormatOptions returns the formatter options with the per-request client
// options applied on top. opts may be nil.
func (c *Config) FormatOptions(opts protocol.FormattingOptions) format.Options {
	out := format.Options{
		KeywordCase:            format.KeywordCase(c.Format.KeywordCase),
		IndentSize:             c.Format.IndentSize,
		InsertSpaces:           c.Format.InsertSpaces,
		OperatorSpacing:        c.Format.OperatorSpacing,
		AlignVarBlocks:         c.Format.AlignVarBlocks,
		TrimTrailingWhitespace: c.Format.TrimTrailingWhitespace,
		InsertFinalNewline:     c.Format.InsertFinalNewline,
	}

	if n, ok := intOption(opts[protocol.FormattingOptionTabSize]); ok && n > 0 {
		out.IndentSize = n
	}
	if b, ok := opts[protocol.FormattingOptionInsertSpaces].(bool); ok {
		out.InsertSpaces = b
	}
	if b, ok := opts[protocol.FormattingOptionTrimTrailingWhitespace].(bool); ok {
		out.TrimTrailingWhitespace = b
	}
	if b, ok := opts[protocol.FormattingOptionInsertFinalNewline].(bool); ok {
		out.InsertFinalNewline = b
	}
	return out
}

// intOption accepts the numeric shapes a decoded JSON or Go caller may use.
func intOption(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
