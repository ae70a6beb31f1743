package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
)

var (
	// ErrNoController is returned by New when the form controller is nil.
	ErrNoController = errors.New("wizard: form controller is required")
	// ErrNoSteps is returned by New when no steps are configured.
	ErrNoSteps = errors.New("wizard: at least one step is required")
)

// Step is one page of the wizard.
type Step struct {
	Name   string
	Fields []string
}

// SubmitFunc runs the terminal submission.
type SubmitFunc func(ctx context.Context) (form.SubmitResult, error)

// Config describes the step sequence. Submit defaults to the controller's
// Submit.
type Config struct {
	Steps  []Step
	Submit SubmitFunc
}

// Transition reports what Advance did. From and To are 1-based step
// positions; Submitted is set when Advance ran the submission, in which case
// Result carries its outcome.
type Transition struct {
	From      int
	To        int
	Submitted bool
	Result    form.SubmitResult
}

// Moved reports whether the current step changed.
func (t Transition) Moved() bool {
	return t.From != t.To
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLogger routes wizard diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithListener registers a step-change listener at construction time. See
// Wizard.Subscribe.
func WithListener(fn func()) Option {
	return func(w *Wizard) {
		if fn != nil {
			w.addListener(fn)
		}
	}
}

// Wizard owns the current step pointer. The pointer is always within
// [1, Len()]. The lock is never held while the controller runs, so
// controller listeners may read the wizard.
type Wizard struct {
	mu      sync.Mutex
	ctrl    *form.Controller
	steps   []Step
	submit  SubmitFunc
	current int
	logger  *slog.Logger

	listenerMu   sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// New validates cfg against the controller's registered fields and returns a
// wizard positioned on step 1.
func New(ctrl *form.Controller, cfg Config, options ...Option) (*Wizard, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	if len(cfg.Steps) == 0 {
		return nil, ErrNoSteps
	}

	registered := make(map[string]struct{})
	for _, name := range ctrl.Names() {
		registered[name] = struct{}{}
	}

	steps := make([]Step, 0, len(cfg.Steps))
	for i, step := range cfg.Steps {
		fields := make([]string, 0, len(step.Fields))
		for _, name := range step.Fields {
			name = strings.TrimSpace(name)
			if _, ok := registered[name]; !ok {
				return nil, fmt.Errorf("wizard: step %d %q: %w", i+1, step.Name, &field.UnknownFieldError{Name: name})
			}
			fields = append(fields, name)
		}
		steps = append(steps, Step{Name: step.Name, Fields: fields})
	}

	submit := cfg.Submit
	if submit == nil {
		submit = ctrl.Submit
	}

	w := &Wizard{
		ctrl:    ctrl,
		steps:   steps,
		submit:  submit,
		current: 1,
		logger:  logging.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Controller returns the form controller the wizard drives.
func (w *Wizard) Controller() *form.Controller {
	return w.ctrl
}

// Len returns the number of steps.
func (w *Wizard) Len() int {
	return len(w.steps)
}

// Current returns the 1-based position of the current step.
func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Step returns a copy of the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepLocked()
}

// Steps returns a copy of every step in order.
func (w *Wizard) Steps() []Step {
	out := make([]Step, len(w.steps))
	for i, step := range w.steps {
		out[i] = Step{Name: step.Name, Fields: append([]string(nil), step.Fields...)}
	}
	return out
}

// IsLast reports whether the current step is the final one.
func (w *Wizard) IsLast() bool {
	return w.Current() == len(w.steps)
}

// CanAdvance reports whether the current step's fields are valid without
// touching them. Renderers use it to disable the next button.
func (w *Wizard) CanAdvance() bool {
	ok, err := w.ctrl.FieldsValid(w.Step().Fields...)
	return err == nil && ok
}

// Advance validates the current step's fields. When any is invalid they are
// marked touched and the step does not change. When valid, the wizard moves
// forward one step, or on the last step runs the submission and stays put.
// The returned error is the submission's error, if any.
func (w *Wizard) Advance(ctx context.Context) (Transition, error) {
	w.mu.Lock()
	from := w.current
	step := w.stepLocked()
	w.mu.Unlock()

	ok, err := w.ctrl.ValidateFields(step.Fields...)
	if err != nil {
		return Transition{From: from, To: from}, err
	}
	if !ok {
		w.logger.Debug("wizard advance blocked", "step", from, "name", step.Name)
		return Transition{From: from, To: from}, nil
	}

	w.mu.Lock()
	if w.current != from {
		w.mu.Unlock()
		w.logger.Debug("wizard advance superseded", "step", from)
		return Transition{From: from, To: from}, nil
	}
	if from < len(w.steps) {
		w.current = from + 1
		w.mu.Unlock()

		w.logger.Debug("wizard advanced", "from", from, "to", from+1)
		w.notify()
		return Transition{From: from, To: from + 1}, nil
	}
	w.mu.Unlock()

	result, err := w.submit(ctx)
	w.logger.Debug("wizard submitted", "step", from, "result", string(result))
	return Transition{From: from, To: from, Submitted: true, Result: result}, err
}

// Retreat moves back one step, stopping at step 1, and returns the new
// position. Field state is left untouched.
func (w *Wizard) Retreat() int {
	w.mu.Lock()
	moved := w.current > 1
	if moved {
		w.current--
	}
	current := w.current
	w.mu.Unlock()

	if moved {
		w.notify()
	}
	return current
}

// Subscribe registers fn to run after every step change. Field edits are
// reported through the controller's own listeners. The returned function
// removes the subscription.
func (w *Wizard) Subscribe(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	id := w.addListener(fn)
	return func() {
		w.listenerMu.Lock()
		delete(w.listeners, id)
		w.listenerMu.Unlock()
	}
}

func (w *Wizard) addListener(fn func()) int {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()
	if w.listeners == nil {
		w.listeners = make(map[int]func())
	}
	id := w.nextListener
	w.nextListener++
	w.listeners[id] = fn
	return id
}

func (w *Wizard) notify() {
	w.listenerMu.Lock()
	ids := make([]int, 0, len(w.listeners))
	for id := range w.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.listeners[id])
	}
	w.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (w *Wizard) stepLocked() Step {
	step := w.steps[w.current-1]
	return Step{Name: step.Name, Fields: append([]string(nil), step.Fields...)}
}
