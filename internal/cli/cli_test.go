package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hlop3z/eavforge/internal/alerr"
)

func TestOutputMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		tty   bool
		plain bool
		json  bool
	}{
		{"ModeTTY", ModeTTY, true, false, false},
		{"ModePlain", ModePlain, false, true, false},
		{"ModeJSON", ModeJSON, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsTTY(); got != tt.tty {
				t.Errorf("IsTTY() = %v, want %v", got, tt.tty)
			}
			if got := cfg.IsPlain(); got != tt.plain {
				t.Errorf("IsPlain() = %v, want %v", got, tt.plain)
			}
			if got := cfg.IsJSON(); got != tt.json {
				t.Errorf("IsJSON() = %v, want %v", got, tt.json)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Writer == nil || cfg.Err == nil {
		t.Error("writers should not be nil")
	}
}

func TestNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if cfg := DefaultConfig(); cfg.Mode != ModePlain {
		t.Errorf("With NO_COLOR set, Mode = %v, want ModePlain", cfg.Mode)
	}
}

func TestTermDumbEnv(t *testing.T) {
	t.Setenv("TERM", "dumb")
	t.Setenv("NO_COLOR", "")
	if cfg := DefaultConfig(); cfg.Mode != ModePlain {
		t.Errorf("With TERM=dumb, Mode = %v, want ModePlain", cfg.Mode)
	}
}

func TestEnableColors(t *testing.T) {
	original := defaultCfg
	defer func() { defaultCfg = original }()

	tests := []struct {
		mode OutputMode
		want bool
	}{
		{ModeTTY, true},
		{ModePlain, false},
		{ModeJSON, false},
	}
	for _, tt := range tests {
		SetDefault(&Config{Mode: tt.mode})
		if got := EnableColors(); got != tt.want {
			t.Errorf("EnableColors() in mode %v = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

// plainPrinter returns a printer in the given mode with captured writers.
func plainPrinter(t *testing.T, mode OutputMode) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	original := defaultCfg
	t.Cleanup(func() { defaultCfg = original })
	SetDefault(&Config{Mode: ModePlain})

	var out, errOut bytes.Buffer
	return NewPrinter(&Config{Mode: mode, Writer: &out, Err: &errOut}), &out, &errOut
}

func TestPrinterPlain(t *testing.T) {
	p, out, errOut := plainPrinter(t, ModePlain)

	p.Print("hello\n")
	p.Warnings([]string{"first", "second"})
	p.Error(alerr.New(alerr.ErrWriteOutput, "failed to write output file"))

	if out.String() != "hello\n" {
		t.Errorf("stdout = %q", out.String())
	}
	want := "warning: first\nwarning: second\nerror[E7001]: failed to write output file\n"
	if errOut.String() != want {
		t.Errorf("stderr =\n%s\nwant\n%s", errOut.String(), want)
	}
}

func TestPrinterJSON(t *testing.T) {
	p, out, errOut := plainPrinter(t, ModeJSON)

	p.Print("ignored")
	p.Warnings([]string{"ignored"})
	p.Error(alerr.New(alerr.ErrMissingSource, "no definition source configured"))

	if errOut.Len() != 0 {
		t.Errorf("stderr must stay empty in JSON mode, got %q", errOut.String())
	}
	var got struct {
		OK    bool           `json:"ok"`
		Error map[string]any `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if got.OK || got.Error["code"] != "E3001" {
		t.Errorf("got %+v", got)
	}
}

func TestPrinterGenericError(t *testing.T) {
	p, _, errOut := plainPrinter(t, ModePlain)
	p.Error(errors.New("boom"))
	if !strings.HasPrefix(errOut.String(), "error: boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
