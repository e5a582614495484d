// Package runtime runs user hook scripts (definition loaders and mappers)
// in a restricted, deterministic Goja JavaScript environment.
package runtime

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/dop251/goja"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// FixedSeed is the deterministic seed for Math.random inside scripts.
const FixedSeed = 12345

// DefaultTimeout bounds every script evaluation and hook call.
const DefaultTimeout = 5 * time.Second

// Logger receives console.log output from scripts.
type Logger interface {
	Printf(format string, v ...any)
}

// Sandbox wraps a single Goja runtime. It is not safe for concurrent use.
type Sandbox struct {
	vm      *goja.Runtime
	timeout time.Duration
	logger  Logger

	// Current script, for error locations.
	file string
	code string
}

// NewSandbox creates a hardened JavaScript sandbox.
func NewSandbox() *Sandbox {
	vm := goja.New()

	vm.SetMaxCallStackSize(500)

	seedRand := rand.New(rand.NewSource(FixedSeed))
	vm.SetRandSource(func() float64 { return seedRand.Float64() })

	// Exported objects use their JSON names on the JS side.
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	disableDangerousGlobals(vm)

	s := &Sandbox{vm: vm, timeout: DefaultTimeout}
	s.bindConsole()
	return s
}

// disableDangerousGlobals removes eval and freezes the builtin prototypes.
func disableDangerousGlobals(vm *goja.Runtime) {
	vm.Set("eval", goja.Undefined())

	_, _ = vm.RunString(`
		(function() {
			try {
				Object.freeze(Object.prototype);
				Object.freeze(Array.prototype);
				Object.freeze(String.prototype);
				Object.freeze(Number.prototype);
				Object.freeze(Boolean.prototype);
			} catch(e) {}
		})();
	`)
}

func (s *Sandbox) bindConsole() {
	console := s.vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		if s.logger == nil {
			return goja.Undefined()
		}
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		s.logger.Printf("hook: %v", args)
		return goja.Undefined()
	})
	s.vm.Set("console", console)
}

// SetTimeout sets the execution timeout. Non-positive values restore the default.
func (s *Sandbox) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	s.timeout = d
}

// SetLogger routes console.log output. Nil discards it.
func (s *Sandbox) SetLogger(l Logger) {
	s.logger = l
}

// RunFile evaluates a script file.
func (s *Sandbox) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return alerr.Wrap(alerr.ErrJSExecution, err, "failed to read hook script").
			WithFile(path, 0)
	}
	s.file = path
	return s.Run(string(data))
}

// Run evaluates code under the sandbox timeout.
func (s *Sandbox) Run(code string) error {
	s.code = code
	_, err := s.guard(context.Background(), func() (goja.Value, error) {
		return s.vm.RunString(code)
	})
	return err
}

// Function returns the global function name, or nil when it is not defined.
func (s *Sandbox) Function(name string) goja.Callable {
	fn, ok := goja.AssertFunction(s.vm.Get(name))
	if !ok {
		return nil
	}
	return fn
}

// Call invokes fn with Go arguments and exports the result. A returned
// promise is resolved before exporting; a rejected promise is an error.
func (s *Sandbox) Call(ctx context.Context, name string, fn goja.Callable, args ...any) (any, error) {
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = s.vm.ToValue(a)
	}

	v, err := s.guard(ctx, func() (goja.Value, error) {
		return fn(goja.Undefined(), jsArgs...)
	})
	if err != nil {
		if e, ok := err.(*alerr.Error); ok {
			return nil, e.With("hook", name)
		}
		return nil, alerr.Wrapf(alerr.ErrJSExecution, err, "hook %s() failed", name).With("hook", name)
	}

	if p, ok := v.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			v = p.Result()
		case goja.PromiseStateRejected:
			return nil, rejected(p.Result(), name)
		default:
			return nil, alerr.Newf(alerr.ErrJSExecution, "hook %s() returned a promise that never settled", name).
				With("hook", name).
				WithHelp("hooks run without an event loop; resolve values synchronously")
		}
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

// guard runs f with the sandbox timeout and ctx cancellation wired to an interrupt.
func (s *Sandbox) guard(ctx context.Context, f func() (goja.Value, error)) (goja.Value, error) {
	timer := time.AfterFunc(s.timeout, func() {
		s.vm.Interrupt("execution timeout")
	})
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
	})
	defer stop()

	v, err := f()
	if err == nil {
		return v, nil
	}

	if _, ok := err.(*goja.InterruptedError); ok {
		s.vm.ClearInterrupt()
		if ctx.Err() != nil {
			return nil, alerr.Wrap(alerr.ErrJSTimeout, ctx.Err(), "script execution cancelled")
		}
		e := alerr.New(alerr.ErrJSTimeout, "script execution timed out").
			With("timeout", s.timeout.String())
		if s.file != "" {
			e.WithFile(s.file, 0)
		}
		return nil, e
	}
	return nil, wrapJSError(err, alerr.ErrJSExecution, "JavaScript execution failed", s.file, s.code)
}

// rejected reports a rejected promise value like a thrown exception.
func rejected(reason goja.Value, name string) *alerr.Error {
	msg := "rejected"
	if reason != nil {
		msg = reason.String()
		if obj, ok := reason.(*goja.Object); ok {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				msg = m.String()
			}
		}
	}
	return alerr.Newf(alerr.ErrJSExecution, "hook %s() rejected: %s", name, msg).
		With("hook", name).
		With("js_message", msg)
}
