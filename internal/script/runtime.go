package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Runtime runs page scripts against a form. Scripts see a `form` object
// whose mutators go through the same validation as Go callers; a rejected
// mutation throws in the script and is returned from Run.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	logger *zap.Logger
	mu     sync.Mutex

	console []LogEntry
	changes []Change
	// first Go error thrown into the script during the current run
	failure error
}

// New creates a runtime
func New(config Config, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		config: config,
		logger: logger.Named("script"),
	}
	r.reset()
	return r
}

func (r *Runtime) reset() {
	r.vm = goja.New()
	r.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	if r.config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.setupGlobals()
}

// Run executes source with f bound to the global `form`. f may be nil.
func (r *Runtime) Run(ctx context.Context, source string, f *form.Form) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.console = nil
	r.changes = nil
	r.failure = nil

	if f != nil {
		r.vm.Set("form", r.formObject(f))
	} else {
		r.vm.Set("form", goja.Undefined())
	}

	done := make(chan struct{})
	var watcher sync.WaitGroup
	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		select {
		case <-timeout:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := r.vm.RunString(source)
	close(done)
	watcher.Wait()
	r.vm.ClearInterrupt()

	result := &Result{
		Console:  r.console,
		Changes:  r.changes,
		Duration: time.Since(start),
	}
	if err != nil {
		if r.failure != nil {
			err = r.failure
		}
		r.logger.Debug("Script failed", zap.Error(err), zap.Duration("duration", result.Duration))
		return result, err
	}
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result.Value = val.Export()
	}
	return result, nil
}

// setupGlobals removes host globals and installs console and timer stubs
func (r *Runtime) setupGlobals() {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			console.Set(level, r.makeConsoleFunc(level))
		}
		r.vm.Set("console", console)
	}

	// timers never fire
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	r.vm.Set("setTimeout", noop)
	r.vm.Set("setInterval", noop)
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		return goja.Undefined()
	}
}

// throw raises err inside the script and keeps it for Run to return
func (r *Runtime) throw(err error) {
	if r.failure == nil {
		r.failure = err
	}
	panic(r.vm.NewGoError(err))
}

func (r *Runtime) stringArg(call goja.FunctionCall, i int) string {
	arg := call.Argument(i)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return ""
	}
	return arg.String()
}

func (r *Runtime) stringsArg(call goja.FunctionCall, i int) []string {
	var values []string
	if err := r.vm.ExportTo(call.Argument(i), &values); err != nil {
		r.throw(fmt.Errorf("expected an array of strings: %w", err))
	}
	return values
}

func (r *Runtime) record(op, name string, f *form.Form) {
	r.changes = append(r.changes, Change{Op: op, Name: name, Values: f.ParameterValues(name)})
}

// formObject exposes f to scripts
func (r *Runtime) formObject(f *form.Form) *goja.Object {
	obj := r.vm.NewObject()
	obj.Set("name", f.Name())
	obj.Set("action", f.Action())
	obj.Set("method", f.Method())

	obj.Set("parameterNames", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(f.ParameterNames())
	})
	obj.Set("getParameter", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(f.ParameterValue(r.stringArg(call, 0)))
	})
	obj.Set("getParameterValues", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(f.ParameterValues(r.stringArg(call, 0)))
	})
	obj.Set("setParameter", func(call goja.FunctionCall) goja.Value {
		name := r.stringArg(call, 0)
		if err := f.SetParameter(name, r.stringArg(call, 1)); err != nil {
			r.throw(err)
		}
		r.record("set", name, f)
		return goja.Undefined()
	})
	obj.Set("setParameterValues", func(call goja.FunctionCall) goja.Value {
		name := r.stringArg(call, 0)
		if err := f.SetParameterValues(name, r.stringsArg(call, 1)); err != nil {
			r.throw(err)
		}
		r.record("set", name, f)
		return goja.Undefined()
	})
	obj.Set("toggle", func(call goja.FunctionCall) goja.Value {
		name := r.stringArg(call, 0)
		if err := f.Toggle(name, r.stringArg(call, 1)); err != nil {
			r.throw(err)
		}
		r.record("toggle", name, f)
		return goja.Undefined()
	})
	obj.Set("setChecked", func(call goja.FunctionCall) goja.Value {
		name := r.stringArg(call, 0)
		if err := f.SetChecked(name, r.stringArg(call, 1), call.Argument(2).ToBoolean()); err != nil {
			r.throw(err)
		}
		r.record("check", name, f)
		return goja.Undefined()
	})
	obj.Set("removeParameter", func(call goja.FunctionCall) goja.Value {
		name := r.stringArg(call, 0)
		if err := f.RemoveParameter(name); err != nil {
			r.throw(err)
		}
		r.record("remove", name, f)
		return goja.Undefined()
	})
	obj.Set("reset", func(goja.FunctionCall) goja.Value {
		f.Reset()
		r.changes = append(r.changes, Change{Op: "reset"})
		return goja.Undefined()
	})
	return obj
}

// Reset discards every global a script defined
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}
