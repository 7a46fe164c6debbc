package tasks

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
)

// Script is a task whose body is JavaScript.
//
// Each Script owns one goja runtime for its whole life, so globals persist
// between runs. Before each run the global `tick` holds the current tick
// count; `state` is an object scripts may use to keep values, and
// `log(msg)` writes an INFO record. Errors thrown by the script are logged and
// swallowed.
type Script struct {
	name   string
	prog   *goja.Program
	vm     *goja.Runtime
	clock  Clock
	logger *slog.Logger
	errs   uint64
}

// NewScript compiles src and prepares its runtime.
func NewScript(name, src string, clock Clock, logger *slog.Logger) (*Script, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}

	s := &Script{
		name:   name,
		prog:   prog,
		vm:     goja.New(),
		clock:  clock,
		logger: logger.With("task", name),
	}
	if err := s.vm.Set("state", s.vm.NewObject()); err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}
	if err := s.vm.Set("log", func(msg string) {
		s.logger.Info(msg, "tick", s.now())
	}); err != nil {
		return nil, fmt.Errorf("set log: %w", err)
	}
	return s, nil
}

func (s *Script) now() uint32 {
	if s.clock == nil {
		return 0
	}
	return s.clock()
}

// Run executes the script once.
func (s *Script) Run() {
	if err := s.vm.Set("tick", s.now()); err != nil {
		s.fail(err)
		return
	}
	if _, err := s.vm.RunProgram(s.prog); err != nil {
		s.fail(err)
	}
}

func (s *Script) fail(err error) {
	s.errs++
	s.logger.Error("script failed", "error", err, "failures", s.errs)
}

// Failures returns how many runs ended in an error.
// Only safe to call from the goroutine that calls Run.
func (s *Script) Failures() uint64 {
	return s.errs
}

// Global returns the exported value of a global variable, or nil.
// Only safe to call from the goroutine that calls Run.
func (s *Script) Global(name string) any {
	v := s.vm.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	return v.Export()
}
