// Package cli formats eavforge command output: colored diagnostics for
// terminals, plain text for pipes and CI, and JSON for tooling.
package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs plain text without colors (for pipes/CI).
	ModePlain
	// ModeJSON outputs structured JSON for programmatic consumption.
	ModeJSON
)

// Config holds CLI output configuration.
type Config struct {
	Mode   OutputMode
	Writer io.Writer
	Err    io.Writer
}

// DefaultConfig returns the auto-detected configuration.
// Rules:
//   - If stdout is TTY and NO_COLOR not set -> ModeTTY
//   - If stdout is not TTY, NO_COLOR is set or TERM=dumb -> ModePlain
//   - ModeJSON is only ever chosen explicitly (--json)
func DefaultConfig() *Config {
	mode := ModePlain
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		mode = ModeTTY
	}

	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		mode = ModePlain
	}

	return &Config{
		Mode:   mode,
		Writer: os.Stdout,
		Err:    os.Stderr,
	}
}

// IsTTY returns true if running in interactive terminal mode.
func (c *Config) IsTTY() bool {
	return c.Mode == ModeTTY
}

// IsPlain returns true if running in plain text mode.
func (c *Config) IsPlain() bool {
	return c.Mode == ModePlain
}

// IsJSON returns true if running in JSON output mode.
func (c *Config) IsJSON() bool {
	return c.Mode == ModeJSON
}

// Global default config, initialized lazily.
var defaultCfg *Config

// Default returns the global default configuration.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return defaultCfg
}

// SetDefault sets the global default configuration.
// Used for testing or when --json flag is passed.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors returns true if colors should be used.
func EnableColors() bool {
	return Default().IsTTY()
}

// -----------------------------------------------------------------------------
// Printer
// -----------------------------------------------------------------------------

// Printer writes results to Writer and diagnostics to Err, honoring Mode.
type Printer struct {
	cfg *Config
}

// NewPrinter creates a printer for cfg, or for Default() when cfg is nil.
func NewPrinter(cfg *Config) *Printer {
	if cfg == nil {
		cfg = Default()
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Err == nil {
		cfg.Err = os.Stderr
	}
	return &Printer{cfg: cfg}
}

// Config returns the printer configuration.
func (p *Printer) Config() *Config {
	return p.cfg
}

// Print writes s to the output writer unless in JSON mode.
func (p *Printer) Print(s string) {
	if p.cfg.IsJSON() {
		return
	}
	io.WriteString(p.cfg.Writer, s)
}

// Error writes a formatted error to the diagnostic writer.
// In JSON mode the error is written as an object to the output writer.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	if p.cfg.IsJSON() {
		p.JSON(map[string]any{"ok": false, "error": ErrorJSON(err)})
		return
	}
	io.WriteString(p.cfg.Err, FormatError(err))
}

// Warnings writes one warning diagnostic per message to the diagnostic writer.
func (p *Printer) Warnings(msgs []string) {
	if p.cfg.IsJSON() {
		return
	}
	for _, m := range msgs {
		io.WriteString(p.cfg.Err, FormatWarning(m))
	}
}

// JSON writes v as indented JSON to the output writer.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.cfg.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
