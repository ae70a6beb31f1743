package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/wizard"
)

// Choices offered after a failed submission.
const (
	choiceRetry  = "Retry"
	choiceEdit   = "Edit answers"
	choiceBack   = "Go back"
	choiceCancel = "Cancel"
)

// Runner drives form controllers and wizards from a terminal.
type Runner struct {
	driver        PromptDriver
	theme         Theme
	summarySource string
	summary       *pongo2.Template
	logger        *slog.Logger
}

// New constructs a Runner with the survey driver by default.
func New(options ...Option) (*Runner, error) {
	r := &Runner{
		summarySource: defaultSummaryTemplate,
		logger:        logging.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}

	tmpl, err := compileSummary(r.summarySource)
	if err != nil {
		return nil, err
	}
	r.summary = tmpl
	return r, nil
}

// RunForm prompts every field of def until each is valid, then submits.
// After a failed submission the user may retry, edit the answers, or cancel.
func (r *Runner) RunForm(ctx context.Context, def formdef.Definition, ctrl *form.Controller) (form.SubmitResult, error) {
	if ctrl == nil {
		return "", errors.New("tui: form controller is required")
	}
	if def.Title != "" {
		if err := r.info(ctx, def.Title); err != nil {
			return "", err
		}
	}

	prompt := true
	for {
		if prompt {
			if err := r.promptFields(ctx, def, ctrl, def.FieldNames()); err != nil {
				return "", err
			}
		}

		result, err := ctrl.Submit(ctx)
		switch result {
		case form.SubmitSucceeded, form.SubmitDropped:
			return result, nil
		case form.SubmitInvalid:
			if err := r.showErrors(ctx, def, ctrl, def.FieldNames()); err != nil {
				return "", err
			}
			prompt = true
			continue
		}

		choice, askErr := r.afterFailure(ctx, ctrl, err, choiceEdit)
		if askErr != nil {
			return "", askErr
		}
		switch choice {
		case choiceRetry:
			prompt = false
		case choiceEdit:
			prompt = true
		default:
			return result, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}
}

// RunWizard walks the steps of wiz. Each step is re-prompted until Advance
// accepts it. On the last step a review summary is shown and the user
// confirms before submitting; declining goes back one step.
func (r *Runner) RunWizard(ctx context.Context, def formdef.Definition, wiz *wizard.Wizard) (form.SubmitResult, error) {
	if wiz == nil {
		return "", errors.New("tui: wizard is required")
	}
	if len(def.Steps) != wiz.Len() {
		return "", ErrStepMismatch
	}
	ctrl := wiz.Controller()

	for {
		current := wiz.Current()
		step := def.Steps[current-1]
		title := step.Title
		if title == "" {
			title = step.Name
		}
		if err := r.info(ctx, fmt.Sprintf("Step %d/%d: %s", current, wiz.Len(), title)); err != nil {
			return "", err
		}
		if err := r.promptFields(ctx, def, ctrl, step.Fields); err != nil {
			return "", err
		}

		if !wiz.IsLast() {
			tr, err := wiz.Advance(ctx)
			if err != nil {
				return "", err
			}
			if !tr.Moved() {
				if err := r.showErrors(ctx, def, ctrl, step.Fields); err != nil {
					return "", err
				}
			}
			continue
		}

		summary, err := renderSummary(r.summary, def, ctrl.Values())
		if err != nil {
			return "", err
		}
		if err := r.driver.Info(ctx, summary); err != nil {
			return "", err
		}
		confirmed, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return "", err
		}
		if !confirmed {
			wiz.Retreat()
			continue
		}

		result, err := r.submitWizard(ctx, def, wiz)
		if result == "" && err == nil {
			continue
		}
		return result, err
	}
}

// submitWizard advances past the last step, repeating on retry. An empty
// result with a nil error tells the caller to resume prompting.
func (r *Runner) submitWizard(ctx context.Context, def formdef.Definition, wiz *wizard.Wizard) (form.SubmitResult, error) {
	ctrl := wiz.Controller()
	for {
		tr, err := wiz.Advance(ctx)
		if !tr.Submitted {
			if err != nil {
				return "", err
			}
			return "", r.showErrors(ctx, def, ctrl, wiz.Step().Fields)
		}

		switch tr.Result {
		case form.SubmitSucceeded, form.SubmitDropped:
			return tr.Result, nil
		case form.SubmitInvalid:
			if err := r.showErrors(ctx, def, ctrl, def.FieldNames()); err != nil {
				return "", err
			}
			rewindToFirstInvalid(def, wiz)
			return "", nil
		}

		choice, askErr := r.afterFailure(ctx, ctrl, err, choiceBack)
		if askErr != nil {
			return "", askErr
		}
		switch choice {
		case choiceRetry:
			continue
		case choiceBack:
			wiz.Retreat()
			return "", nil
		default:
			return tr.Result, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}
}

func rewindToFirstInvalid(def formdef.Definition, wiz *wizard.Wizard) {
	ctrl := wiz.Controller()
	for i, step := range def.Steps {
		if ok, _ := ctrl.FieldsValid(step.Fields...); !ok {
			for wiz.Current() > i+1 {
				wiz.Retreat()
			}
			return
		}
	}
}

func (r *Runner) promptFields(ctx context.Context, def formdef.Definition, ctrl *form.Controller, names []string) error {
	for _, name := range names {
		if err := r.promptField(ctx, def, ctrl, name); err != nil {
			return err
		}
	}
	return nil
}

// promptField asks for name until its displayed error is empty.
func (r *Runner) promptField(ctx context.Context, def formdef.Definition, ctrl *form.Controller, name string) error {
	fieldDef, ok := def.Field(name)
	if !ok {
		fieldDef = formdef.Field{Name: name}
	}
	props, err := ctrl.InputProps(name)
	if err != nil {
		return err
	}

	for {
		cfg := InputConfig{Message: fieldDef.DisplayLabel(), Help: fieldDef.Help}
		var answer string
		if fieldDef.Secret {
			answer, err = r.driver.Password(ctx, cfg)
		} else {
			cfg.Default, _ = props.Value.(string)
			answer, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}

		props.OnChange(answer)
		props.OnBlur()
		msg := ctrl.DisplayError(name)
		if msg == "" {
			return nil
		}
		r.logger.Debug("field rejected", "form", def.ID, "field", name)
		if err := r.fail(ctx, msg); err != nil {
			return err
		}
		if props, err = ctrl.InputProps(name); err != nil {
			return err
		}
	}
}

func (r *Runner) showErrors(ctx context.Context, def formdef.Definition, ctrl *form.Controller, names []string) error {
	for _, name := range names {
		msg := ctrl.DisplayError(name)
		if msg == "" {
			continue
		}
		label := name
		if fieldDef, ok := def.Field(name); ok {
			label = fieldDef.DisplayLabel()
		}
		if err := r.fail(ctx, label+": "+msg); err != nil {
			return err
		}
	}
	return nil
}

// afterFailure reports a failed submission and asks what to do next. alt is
// the non-retry way to keep going (edit answers or go back a step).
func (r *Runner) afterFailure(ctx context.Context, ctrl *form.Controller, cause error, alt string) (string, error) {
	state := ctrl.SubmissionState()
	r.logger.Warn("submission failed", "attempt", state.Attempt, "error", cause)

	lines := []string{"Submission failed: " + errorMessage(cause)}
	if state.Failure != nil {
		for _, name := range ctrl.Names() {
			for _, msg := range state.FieldFailures(name) {
				lines = append(lines, "  "+name+": "+msg)
			}
		}
		for _, msg := range state.Failure.Form {
			if msg != state.Failure.Message {
				lines = append(lines, "  "+msg)
			}
		}
	}
	if err := r.fail(ctx, strings.Join(lines, "\n")); err != nil {
		return "", err
	}

	options := []string{choiceRetry, alt, choiceCancel}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: "What next?", Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return choiceCancel, nil
	}
	return options[idx], nil
}

func (r *Runner) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Runner) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
