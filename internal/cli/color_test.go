package cli

import "testing"

func TestColorFunctionsPlainMode(t *testing.T) {
	original := defaultCfg
	defer func() { defaultCfg = original }()
	SetDefault(&Config{Mode: ModePlain})

	tests := []struct {
		name  string
		fn    func(string) string
		input string
	}{
		{"Error", Error, "error text"},
		{"Warning", Warning, "warning text"},
		{"Note", Note, "note text"},
		{"Help", Help, "help text"},
		{"Success", Success, "success text"},
		{"Code", Code, "E1001"},
		{"FilePath", FilePath, "hooks.js"},
		{"Header", Header, "TABLE"},
		{"Dim", Dim, "muted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.input {
				t.Errorf("%s(%q) = %q, want unchanged in plain mode", tt.name, tt.input, got)
			}
		})
	}

	if Pipe() != "|" {
		t.Errorf("Pipe() = %q", Pipe())
	}
	if Arrow() != "-->" {
		t.Errorf("Arrow() = %q", Arrow())
	}
}
