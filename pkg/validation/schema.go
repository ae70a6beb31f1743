package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/field"
)

// DefaultMessageKey is looked up in a field's message table when no entry
// exists for the failing keyword.
const DefaultMessageKey = "default"

// Messages maps field name to schema keyword (minLength, pattern, ...) to a
// user-facing message.
type Messages map[string]map[string]string

func (m Messages) lookup(name, keyword string) string {
	table := m[name]
	if table == nil {
		return ""
	}
	if msg := strings.TrimSpace(table[keyword]); msg != "" {
		return msg
	}
	return strings.TrimSpace(table[DefaultMessageKey])
}

// SchemaOption configures NewSchemaValidator.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	messages    Messages
	refinements []Validator
}

// WithMessages replaces kin-openapi reasons with the supplied messages.
func WithMessages(messages Messages) SchemaOption {
	return func(cfg *schemaConfig) {
		if len(messages) == 0 {
			return
		}
		if cfg.messages == nil {
			cfg.messages = make(Messages, len(messages))
		}
		for name, table := range messages {
			cfg.messages[name] = table
		}
	}
}

// WithRefinement layers a cross-field validator on top of the schema. A
// refinement message is only recorded for fields the schema left valid.
func WithRefinement(v Validator) SchemaOption {
	return func(cfg *schemaConfig) {
		if v != nil {
			cfg.refinements = append(cfg.refinements, v)
		}
	}
}

// NewSchemaValidator builds a Validator from a JSON schema describing the
// snapshot as an object. The schema document itself is checked up front so
// a broken schema fails at construction rather than on every keystroke.
func NewSchemaValidator(raw []byte, opts ...SchemaOption) (Validator, error) {
	schema, err := decodeSchema(raw)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validation: invalid schema: %w", err)
	}

	cfg := &schemaConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return func(values field.Snapshot) Result {
		out := make(Result)
		err := schema.VisitJSON(map[string]any(values), openapi3.MultiErrors())
		for _, issue := range collectSchemaIssues(err, nil) {
			if issue.field == "" || out[issue.field] != "" {
				continue
			}
			msg := cfg.messages.lookup(issue.field, issue.keyword)
			if msg == "" {
				msg = issue.reason
			}
			out[issue.field] = msg
		}
		for _, refine := range cfg.refinements {
			for name, msg := range refine(values) {
				if msg == "" || out[name] != "" {
					continue
				}
				out[name] = msg
			}
		}
		return out
	}, nil
}

type schemaIssue struct {
	field   string
	keyword string
	reason  string
}

func collectSchemaIssues(err error, out []schemaIssue) []schemaIssue {
	if err == nil {
		return out
	}
	switch typed := err.(type) {
	case openapi3.MultiError:
		for _, nested := range typed {
			out = collectSchemaIssues(nested, out)
		}
		return out
	case *openapi3.SchemaError:
		issue := schemaIssue{
			keyword: typed.SchemaField,
			reason:  strings.TrimSpace(typed.Reason),
		}
		if pointer := typed.JSONPointer(); len(pointer) > 0 {
			issue.field = pointer[0]
		}
		return append(out, issue)
	default:
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			return collectSchemaIssues(schemaErr, out)
		}
		return append(out, schemaIssue{reason: strings.TrimSpace(err.Error())})
	}
}

func decodeSchema(raw []byte) (*openapi3.Schema, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("validation: schema payload is empty")
	}
	schema := &openapi3.Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, fmt.Errorf("validation: parse schema: %w", err)
	}
	return schema, nil
}

// SchemaIssue represents a problem found in a schema document.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of ValidateSchemaDocument.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// ValidateSchemaDocument checks that raw is a usable object schema and
// reports issues per property where possible.
func ValidateSchemaDocument(ctx context.Context, raw []byte) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}

	schema, err := decodeSchema(raw)
	if err != nil {
		result.Valid = false
		result.Issues = []SchemaIssue{{Message: err.Error()}}
		return result
	}

	if schema.Type != nil && !schema.Type.Is(openapi3.TypeObject) {
		result.Valid = false
		result.Issues = append(result.Issues, SchemaIssue{
			Path:    "#/type",
			Message: "form schema must describe an object",
		})
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if err := ref.Value.Validate(ctx); err != nil {
			result.Valid = false
			result.Issues = append(result.Issues, SchemaIssue{
				Path:    "#/properties/" + escapePointer(name),
				Field:   name,
				Message: strings.TrimSpace(err.Error()),
			})
		}
	}

	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; !ok {
			result.Valid = false
			result.Issues = append(result.Issues, SchemaIssue{
				Path:    "#/required",
				Field:   name,
				Message: fmt.Sprintf("required property %q is not declared", name),
			})
		}
	}

	if result.Valid {
		if err := schema.Validate(ctx); err != nil {
			result.Valid = false
			result.Issues = append(result.Issues, SchemaIssue{Message: strings.TrimSpace(err.Error())})
		}
	}
	return result
}

func escapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}
