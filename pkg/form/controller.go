package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// SubmitFunc performs the actual submission (usually a network call) with
// the validated snapshot. A non-nil error settles the submission as failed.
type SubmitFunc func(ctx context.Context, values field.Snapshot) error

// Config is the construction input for a Controller. The keys of
// InitialValues define the field set for the lifetime of the form.
type Config struct {
	InitialValues map[string]any
	Validator     validation.Validator
	OnSubmit      SubmitFunc
}

// InputProps binds a single field to an input widget.
type InputProps struct {
	Name     string
	Value    any
	Error    string
	Touched  bool
	OnChange func(value any)
	OnBlur   func()
}

// DisplayError returns Error once the field has been touched.
func (p InputProps) DisplayError() string {
	if !p.Touched {
		return ""
	}
	return p.Error
}

// Controller tracks form state, validation, and submission. Methods are
// safe to call from multiple goroutines; the submit action itself runs
// without holding the state lock so edits stay responsive while a
// submission is in flight.
type Controller struct {
	mu         sync.Mutex
	store      *field.Store
	validate   validation.Validator
	onSubmit   SubmitFunc
	submission SubmissionState
	sanitizers map[string]func(any) any
	logger     *slog.Logger

	listenerMu   sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// New constructs a Controller and validates the initial values so
// pre-filled fields already carry their errors.
func New(cfg Config, options ...Option) (*Controller, error) {
	if len(cfg.InitialValues) == 0 {
		return nil, ErrNoFields
	}
	if cfg.OnSubmit == nil {
		return nil, ErrNoSubmitAction
	}

	validate := cfg.Validator
	if validate == nil {
		validate = validation.None()
	}

	c := &Controller{
		store:      field.New(cfg.InitialValues),
		validate:   validate,
		onSubmit:   cfg.OnSubmit,
		submission: SubmissionState{Phase: PhaseIdle},
		logger:     logging.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	c.revalidateLocked()
	return c, nil
}

// Names returns the registered field names in sorted order.
func (c *Controller) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Names()
}

// Field returns the current state of name.
func (c *Controller) Field(name string) (field.Field, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Field(name)
}

// Fields returns every field in name order.
func (c *Controller) Fields() []field.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := c.store.Names()
	out := make([]field.Field, 0, len(names))
	for _, name := range names {
		f, _ := c.store.Field(name)
		out = append(out, f)
	}
	return out
}

// Values returns a snapshot of the current values.
func (c *Controller) Values() field.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// Errors returns the stored validation result for every field.
func (c *Controller) Errors() validation.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validation.Result(c.store.Errors())
}

// InputProps returns the binding for name.
func (c *Controller) InputProps(name string) (InputProps, error) {
	f, err := c.Field(name)
	if err != nil {
		return InputProps{}, err
	}
	return InputProps{
		Name:    f.Name,
		Value:   f.Value,
		Error:   f.Error,
		Touched: f.Touched,
		OnChange: func(value any) {
			_ = c.SetValue(name, value)
		},
		OnBlur: func() {
			_ = c.Blur(name)
		},
	}, nil
}

// MustInputProps is InputProps for names known at compile time. It panics
// on an unregistered name.
func (c *Controller) MustInputProps(name string) InputProps {
	props, err := c.InputProps(name)
	if err != nil {
		panic(err)
	}
	return props
}

// SetValue writes value to name, marks it touched, and re-validates the
// full snapshot.
func (c *Controller) SetValue(name string, value any) error {
	c.mu.Lock()
	if sanitize := c.sanitizers[name]; sanitize != nil {
		value = sanitize(value)
	}
	if err := c.store.SetValue(name, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.revalidateLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Blur marks name touched without changing its value.
func (c *Controller) Blur(name string) error {
	c.mu.Lock()
	err := c.store.MarkTouched(name)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()
	return nil
}

// IsValid reports whether no field has an error, touched or not.
func (c *Controller) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validation.Result(c.store.Errors()).Valid()
}

// DisplayError returns the error for name when it should be shown inline:
// the field is touched and has an error.
func (c *Controller) DisplayError(name string) string {
	f, err := c.Field(name)
	if err != nil || !f.Touched {
		return ""
	}
	return f.Error
}

// ValidateFields re-validates the full snapshot and reports whether every
// named field is valid. Fields outside names are ignored. When the subset
// is invalid its fields are marked touched so the errors surface.
func (c *Controller) ValidateFields(names ...string) (bool, error) {
	c.mu.Lock()
	for _, name := range names {
		if !c.store.Has(name) {
			c.mu.Unlock()
			return false, &field.UnknownFieldError{Name: name}
		}
	}
	ok := c.revalidateLocked().Subset(names...).Valid()
	if !ok {
		for _, name := range names {
			_ = c.store.MarkTouched(name)
		}
	}
	c.mu.Unlock()

	if !ok {
		c.notify()
	}
	return ok, nil
}

// FieldsValid reports whether every named field currently has no error
// without touching anything.
func (c *Controller) FieldsValid(names ...string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := validation.Result(c.store.Errors())
	for _, name := range names {
		if !c.store.Has(name) {
			return false, &field.UnknownFieldError{Name: name}
		}
	}
	return errs.Subset(names...).Valid(), nil
}

// SubmissionState returns the latest submission state.
func (c *Controller) SubmissionState() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submission
}

// Submit validates the form and, when valid, runs the submit action with a
// snapshot of the values. Only the action's error is returned; validation
// failures are reported through SubmitInvalid and field state. A Submit
// received while another is in flight returns SubmitDropped without
// invoking the action. Settled submissions may be retried by calling Submit
// again. A panicking action settles as a failure with ErrSubmitPanicked.
func (c *Controller) Submit(ctx context.Context) (SubmitResult, error) {
	c.mu.Lock()
	if c.submission.InFlight() {
		attempt := c.submission.Attempt
		c.mu.Unlock()
		c.logger.Debug("form submit dropped", "attempt", attempt)
		return SubmitDropped, nil
	}

	result := c.revalidateLocked()
	if !result.Valid() {
		c.store.TouchAll()
		c.mu.Unlock()
		c.logger.Debug("form submit withheld", "invalid", invalidNames(result))
		c.notify()
		return SubmitInvalid, nil
	}

	attempt := uuid.NewString()
	values := c.store.Snapshot()
	names := c.store.Names()
	c.submission = SubmissionState{Phase: PhaseInFlight, Attempt: attempt}
	c.mu.Unlock()
	c.notify()

	c.logger.Info("form submit started", "attempt", attempt)
	err := c.runAction(ctx, values)

	settled := SubmissionState{Phase: PhaseSettled, Attempt: attempt, Err: err}
	var failure *Failure
	if errors.As(err, &failure) {
		settled.Failure = failure.ForFields(names)
	}

	c.mu.Lock()
	c.submission = settled
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Warn("form submit failed", "attempt", attempt, "error", err)
		return SubmitFailed, err
	}
	c.logger.Info("form submit succeeded", "attempt", attempt)
	return SubmitSucceeded, nil
}

// runAction calls the submit action, turning a panic into an error wrapping
// ErrSubmitPanicked so the submission always settles.
func (c *Controller) runAction(ctx context.Context, values field.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubmitPanicked, r)
		}
	}()
	return c.onSubmit(ctx, values)
}

// Subscribe registers fn to run after every state change. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	id := c.addListener(fn)
	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

func (c *Controller) addListener(fn func()) int {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	if c.listeners == nil {
		c.listeners = make(map[int]func())
	}
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return id
}

func (c *Controller) notify() {
	c.listenerMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// revalidateLocked recomputes every error from scratch and returns the
// stored errors of registered fields. Callers hold c.mu.
func (c *Controller) revalidateLocked() validation.Result {
	c.store.ApplyErrors(c.validate(c.store.Snapshot()))
	return validation.Result(c.store.Errors())
}

func invalidNames(result validation.Result) []string {
	names := make([]string, 0, len(result))
	for name, msg := range result {
		if msg != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
