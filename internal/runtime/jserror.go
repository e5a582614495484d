package runtime

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// JSErrorInfo contains extracted information from a JavaScript error.
type JSErrorInfo struct {
	Message string
	Line    int
	Column  int
	Stack   string
}

// ParseJSError extracts the message and the first JS call site from a Goja error.
func ParseJSError(err error) *JSErrorInfo {
	if err == nil {
		return nil
	}

	info := &JSErrorInfo{Message: err.Error()}

	if syntaxErr, ok := err.(*goja.CompilerSyntaxError); ok {
		if syntaxErr.File != nil {
			pos := syntaxErr.File.Position(syntaxErr.Offset)
			info.Line = pos.Line
			info.Column = pos.Column
		}
		return info
	}

	if exception, ok := err.(*goja.Exception); ok {
		info.Message = exception.Value().String()
		info.Stack = exception.String()

		// Error objects carry a message property; thrown strings are used as-is.
		if obj, ok := exception.Value().(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) && !goja.IsNull(msg) {
				info.Message = msg.String()
			}
		}

		// Skip native Go frames (line 0) to find the first JS call site.
		if frames := exception.Stack(); len(frames) > 0 {
			for _, frame := range frames {
				pos := frame.Position()
				if pos.Line > 0 {
					info.Line = pos.Line
					info.Column = pos.Column
					break
				}
			}
		} else {
			parseGojaErrorMessage(info)
		}
		return info
	}

	if interrupted, ok := err.(*goja.InterruptedError); ok {
		info.Message = "execution interrupted: " + interrupted.String()
	}
	return info
}

// parseGojaErrorMessage reads "Line X:Y" out of Goja's syntax error format,
// used when an Exception has no stack frames.
// Format: "SyntaxError: (file): Line 1:11 Unexpected token ;"
func parseGojaErrorMessage(info *JSErrorInfo) {
	msg := info.Message

	lineIdx := strings.Index(msg, "Line ")
	if lineIdx == -1 {
		return
	}
	rest := msg[lineIdx+5:]

	colonIdx := strings.Index(rest, ":")
	if colonIdx == -1 {
		return
	}
	if line, err := strconv.Atoi(rest[:colonIdx]); err == nil {
		info.Line = line
	}

	rest = rest[colonIdx+1:]
	if spaceIdx := strings.Index(rest, " "); spaceIdx != -1 {
		if col, err := strconv.Atoi(rest[:spaceIdx]); err == nil {
			info.Column = col
		}
	}
}

// GetSourceLine returns line lineNum (1-indexed, as Goja reports) of code.
func GetSourceLine(code string, lineNum int) string {
	if lineNum <= 0 || code == "" {
		return ""
	}

	scanner := bufio.NewScanner(strings.NewReader(code))
	currentLine := 0
	for scanner.Scan() {
		currentLine++
		if currentLine == lineNum {
			return scanner.Text()
		}
	}
	return ""
}

// wrapJSError creates an error carrying the script location and source line.
func wrapJSError(err error, code alerr.Code, message, file, src string) *alerr.Error {
	jsErr := ParseJSError(err)
	e := alerr.Wrap(code, err, message)
	if jsErr == nil {
		return e
	}

	e.With("js_message", jsErr.Message)
	if jsErr.Line > 0 {
		if file != "" {
			e.WithLocation(file, jsErr.Line, jsErr.Column)
		} else {
			e.With("line", jsErr.Line)
			if jsErr.Column > 0 {
				e.With("column", jsErr.Column)
			}
		}
		if line := strings.TrimSpace(GetSourceLine(src, jsErr.Line)); line != "" {
			e.WithNote("at: " + line)
		}
	}

	addJSErrorHelp(e, jsErr.Message)
	return e
}

// addJSErrorHelp adds contextual help based on the error message.
func addJSErrorHelp(err *alerr.Error, message string) {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "eval"):
		err.WithNote("eval is disabled inside hook scripts")
	case strings.Contains(msg, "is not a function"):
		err.WithNote("attempted to call something that is not a function")
		err.WithHelp("check the method name and ensure it exists on the object")
	case strings.Contains(msg, "is not defined"):
		err.WithNote("a variable or function was not found in scope")
	case strings.Contains(msg, "unexpected token"):
		err.WithNote("unexpected character in code")
		err.WithHelp("check for typos or missing punctuation")
	case strings.Contains(msg, "syntax"):
		err.WithNote("check for missing brackets, quotes, or commas")
	}
}
