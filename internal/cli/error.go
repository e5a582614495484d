package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// phased is implemented by errors that know which pipeline stage failed.
type phased interface {
	Phase() string
}

// Context keys rendered elsewhere in the diagnostic, or not at all.
var shownKeys = map[string]bool{
	"file": true, "line": true, "column": true,
	"notes": true, "helps": true,
}

// FormatError formats an error in Cargo/rustc style.
//
// The first *alerr.Error in the chain supplies the code, location, context,
// notes and helps. A stage reported by the chain is shown as a note.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var ae *alerr.Error
	if !errors.As(err, &ae) {
		return formatGenericError(err)
	}

	var b strings.Builder

	// error[E1001]: message
	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(string(ae.GetCode())))
	b.WriteString("]: ")
	b.WriteString(ae.GetMessage())
	b.WriteString("\n")

	if file, line, col, ok := ae.Location(); ok {
		b.WriteString("  ")
		b.WriteString(Arrow())
		b.WriteString(" ")
		b.WriteString(FilePath(location(file, line, col)))
		b.WriteString("\n")
	}

	ctx := ae.GetContext()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if !shownKeys[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if len(keys) > 0 {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		for _, k := range keys {
			b.WriteString("   ")
			b.WriteString(Pipe())
			b.WriteString(" ")
			b.WriteString(fmt.Sprintf("%s: %v", k, ctx[k]))
			b.WriteString("\n")
		}
	}

	var ph phased
	if errors.As(err, &ph) {
		writeLabeled(&b, Note("note"), "failed while "+ph.Phase())
	}
	for _, note := range ae.Notes() {
		writeLabeled(&b, Note("note"), note)
	}
	for _, help := range ae.Helps() {
		writeLabeled(&b, Help("help"), help)
	}

	if cause := ae.GetCause(); cause != nil {
		writeLabeled(&b, Note("cause"), cleanCauseMessage(cause.Error()))
	}

	return b.String()
}

func writeLabeled(b *strings.Builder, label, msg string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
}

func location(file string, line, col int) string {
	switch {
	case line > 0 && col > 0:
		return fmt.Sprintf("%s:%d:%d", file, line, col)
	case line > 0:
		return fmt.Sprintf("%s:%d", file, line)
	}
	return file
}

// cleanCauseMessage strips Goja stack traces and collapses multi-line
// validation lists onto indented lines.
func cleanCauseMessage(msg string) string {
	if idx := strings.Index(msg, " at github.com"); idx != -1 {
		msg = strings.TrimSpace(msg[:idx])
	}
	return strings.ReplaceAll(msg, "\n", "\n       ")
}

// formatGenericError formats an error without a code.
func formatGenericError(err error) string {
	var b strings.Builder
	writeLabeled(&b, Error("error"), err.Error())
	return b.String()
}

// ErrorJSON returns the structured form of err for --json output.
func ErrorJSON(err error) map[string]any {
	out := map[string]any{"message": err.Error()}

	var ph phased
	if errors.As(err, &ph) {
		out["stage"] = ph.Phase()
	}

	var ae *alerr.Error
	if !errors.As(err, &ae) {
		return out
	}
	out["code"] = string(ae.GetCode())
	out["message"] = ae.GetMessage()
	if ctx := ae.GetContext(); len(ctx) > 0 {
		out["context"] = ctx
	}
	if cause := ae.GetCause(); cause != nil {
		out["cause"] = cause.Error()
	}
	return out
}

// FormatWarning formats a warning message.
func FormatWarning(msg string) string {
	var b strings.Builder
	writeLabeled(&b, Warning("warning"), msg)
	return b.String()
}

// FormatNote formats a note message.
func FormatNote(msg string) string {
	var b strings.Builder
	writeLabeled(&b, Note("note"), msg)
	return b.String()
}

// FormatHelp formats a help message.
func FormatHelp(msg string) string {
	var b strings.Builder
	writeLabeled(&b, Help("help"), msg)
	return b.String()
}

// FormatSuccess formats a success message.
func FormatSuccess(msg string) string {
	var b strings.Builder
	writeLabeled(&b, Success("success"), msg)
	return b.String()
}
