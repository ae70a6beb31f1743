package formdef

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/sanitize"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/wizard"
)

var builtinRules = map[string]func() validation.Validator{
	"signin": validation.Signin,
	"signup": validation.Signup,
}

// SchemaJSON returns the schema section encoded as JSON, or nil when the
// definition has no schema.
func (d Definition) SchemaJSON() ([]byte, error) {
	if len(d.Schema) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(d.Schema)
	if err != nil {
		return nil, fmt.Errorf("formdef: definition %q: encode schema: %w", d.ID, err)
	}
	return raw, nil
}

// Validator returns the validator described by the definition: the JSON
// schema when present, otherwise the named rule set, with refinements layered
// on top. A definition with neither validates refinements only.
func (d Definition) Validator() (validation.Validator, error) {
	refinements := d.refinements()

	if len(d.Schema) > 0 {
		if d.Rules != "" {
			return nil, fmt.Errorf("formdef: definition %q sets both rules and schema", d.ID)
		}
		raw, err := d.SchemaJSON()
		if err != nil {
			return nil, err
		}
		opts := []validation.SchemaOption{validation.WithMessages(d.Messages)}
		for _, refine := range refinements {
			opts = append(opts, validation.WithRefinement(refine))
		}
		validate, err := validation.NewSchemaValidator(raw, opts...)
		if err != nil {
			return nil, fmt.Errorf("formdef: definition %q: %w", d.ID, err)
		}
		return validate, nil
	}

	if d.Rules != "" {
		rules, ok := builtinRules[d.Rules]
		if !ok {
			return nil, fmt.Errorf("formdef: definition %q: unknown rules %q", d.ID, d.Rules)
		}
		return validation.Compose(append([]validation.Validator{rules()}, refinements...)...), nil
	}

	return validation.Compose(refinements...), nil
}

func (d Definition) refinements() []validation.Validator {
	out := make([]validation.Validator, 0, len(d.Refine))
	for _, r := range d.Refine {
		if r.Kind == RefineEquals {
			out = append(out, validation.Equals(r.Field, r.Other, r.Message))
		}
	}
	return out
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger      *slog.Logger
	formOptions []form.Option
}

// WithLogger passes logger to the controller and the wizard.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.logger = logger
	}
}

// WithFormOptions appends controller options.
func WithFormOptions(opts ...form.Option) BuildOption {
	return func(cfg *buildConfig) {
		cfg.formOptions = append(cfg.formOptions, opts...)
	}
}

// Build creates a controller seeded with the definition's initial values,
// validator and sanitizers. The wizard is nil unless the definition declares
// steps.
func (d Definition) Build(onSubmit form.SubmitFunc, opts ...BuildOption) (*form.Controller, *wizard.Wizard, error) {
	cfg := &buildConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	validate, err := d.Validator()
	if err != nil {
		return nil, nil, err
	}

	initial := make(map[string]any, len(d.Fields))
	var textFields, urlFields []string
	for _, f := range d.Fields {
		initial[f.Name] = f.Initial
		switch f.Sanitize {
		case SanitizeText:
			textFields = append(textFields, f.Name)
		case SanitizeURL:
			urlFields = append(urlFields, f.Name)
		}
	}

	formOpts := []form.Option{
		form.WithSanitizer(sanitize.Value, textFields...),
		form.WithSanitizer(sanitizeURLValue, urlFields...),
	}
	if cfg.logger != nil {
		formOpts = append(formOpts, form.WithLogger(cfg.logger.With("form", d.ID)))
	}
	formOpts = append(formOpts, cfg.formOptions...)

	ctrl, err := form.New(form.Config{
		InitialValues: initial,
		Validator:     validate,
		OnSubmit:      onSubmit,
	}, formOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("formdef: definition %q: %w", d.ID, err)
	}
	if !d.IsWizard() {
		return ctrl, nil, nil
	}

	steps := make([]wizard.Step, len(d.Steps))
	for i, step := range d.Steps {
		steps[i] = wizard.Step{Name: step.Name, Fields: append([]string(nil), step.Fields...)}
	}
	var wizOpts []wizard.Option
	if cfg.logger != nil {
		wizOpts = append(wizOpts, wizard.WithLogger(cfg.logger.With("form", d.ID)))
	}
	wiz, err := wizard.New(ctrl, wizard.Config{Steps: steps}, wizOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("formdef: definition %q: %w", d.ID, err)
	}
	return ctrl, wiz, nil
}

func sanitizeURLValue(value any) any {
	if str, ok := value.(string); ok {
		return sanitize.URLInput(str)
	}
	return value
}

// CheckError lists every problem Check found in a definition.
type CheckError struct {
	ID     string
	Source string
	Issues []validation.SchemaIssue
}

func (e *CheckError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("formdef: definition %q is invalid", e.ID)
	}
	first := e.Issues[0]
	msg := first.Message
	if first.Path != "" {
		msg = first.Path + ": " + msg
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("formdef: definition %q: %s", e.ID, msg)
	}
	return fmt.Sprintf("formdef: definition %q: %s (and %d more)", e.ID, msg, len(e.Issues)-1)
}

// Check verifies field references in steps, refinements and messages, and
// validates the schema document. It returns a *CheckError listing every
// issue, or nil.
func (d Definition) Check(ctx context.Context) error {
	var issues []validation.SchemaIssue
	add := func(path, name, format string, args ...any) {
		issues = append(issues, validation.SchemaIssue{Path: path, Field: name, Message: fmt.Sprintf(format, args...)})
	}

	declared := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		declared[f.Name] = struct{}{}
	}

	if d.Rules != "" {
		if _, ok := builtinRules[d.Rules]; !ok {
			add("#/rules", "", "unknown rules %q", d.Rules)
		}
		if len(d.Schema) > 0 {
			add("#/rules", "", "rules and schema are mutually exclusive")
		}
	}

	if d.IsWizard() {
		assigned := make(map[string]int)
		for i, step := range d.Steps {
			if len(step.Fields) == 0 {
				add(fmt.Sprintf("#/steps/%d/fields", i), "", "step %q has no fields", step.Name)
			}
			for j, name := range step.Fields {
				path := fmt.Sprintf("#/steps/%d/fields/%d", i, j)
				if _, ok := declared[name]; !ok {
					add(path, name, "step %q references undeclared field %q", step.Name, name)
					continue
				}
				if prev, dup := assigned[name]; dup {
					add(path, name, "field %q already belongs to step %d", name, prev+1)
					continue
				}
				assigned[name] = i
			}
		}
		for _, f := range d.Fields {
			if _, ok := assigned[f.Name]; !ok {
				add("#/fields", f.Name, "field %q is not assigned to a step", f.Name)
			}
		}
	}

	for i, r := range d.Refine {
		for _, name := range []string{r.Field, r.Other} {
			if _, ok := declared[name]; !ok {
				add(fmt.Sprintf("#/refine/%d", i), name, "refinement references undeclared field %q", name)
			}
		}
		if strings.TrimSpace(r.Message) == "" {
			add(fmt.Sprintf("#/refine/%d/message", i), r.Field, "refinement has no message")
		}
	}

	messageNames := make([]string, 0, len(d.Messages))
	for name := range d.Messages {
		messageNames = append(messageNames, name)
	}
	sort.Strings(messageNames)
	for _, name := range messageNames {
		if _, ok := declared[name]; !ok {
			add("#/messages", name, "messages reference undeclared field %q", name)
		}
	}

	if len(d.Schema) > 0 {
		raw, err := d.SchemaJSON()
		if err != nil {
			add("#/schema", "", "%v", err)
		} else {
			result := validation.ValidateSchemaDocument(ctx, raw)
			for _, issue := range result.Issues {
				issue.Path = "#/schema" + strings.TrimPrefix(issue.Path, "#")
				issues = append(issues, issue)
			}
			if required, ok := d.Schema["required"].([]any); ok {
				for _, entry := range required {
					name, _ := entry.(string)
					if _, ok := declared[name]; !ok {
						add("#/schema/required", name, "required property %q is not a form field", name)
					}
				}
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &CheckError{ID: d.ID, Source: d.Source, Issues: issues}
}
