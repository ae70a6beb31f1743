package form

import (
	"strconv"
	"strings"
)

// Failure is a submission error reported by the remote side. Message is the
// headline (for example "email already exists"); Payload keeps per-path
// messages exactly as received. Fields and Form are filled in by
// ForFields once the registered field names are known.
type Failure struct {
	Status  int
	Message string
	Payload map[string][]string
	Fields  map[string][]string
	Form    []string
}

// NewFailure builds a Failure from a headline message and an optional
// path-keyed payload.
func NewFailure(status int, message string, payload map[string][]string) *Failure {
	return &Failure{
		Status:  status,
		Message: strings.TrimSpace(message),
		Payload: payload,
	}
}

func (f *Failure) Error() string {
	if f == nil {
		return "form: submission failed"
	}
	if f.Message != "" {
		return f.Message
	}
	if len(f.Form) > 0 {
		return f.Form[0]
	}
	return "form: submission failed"
}

// ForFields returns a copy of f with Payload split into field and form
// messages for the supplied field names.
func (f *Failure) ForFields(names []string) *Failure {
	if f == nil {
		return nil
	}
	out := *f
	fields, form := MapFailurePayload(names, f.Payload)
	out.Fields = fields
	out.Form = MergeFormErrors(f.Form, form...)
	return &out
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapFailurePayload normalises server error payloads keyed by JSON pointers,
// dotted paths, or bare names onto the registered field names. Paths that do
// not resolve to a field are returned as form-level messages so nothing is
// lost.
func MapFailurePayload(names []string, payload map[string][]string) (map[string][]string, []string) {
	if len(payload) == 0 {
		return nil, nil
	}

	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			known[trimmed] = struct{}{}
		}
	}

	fields := make(map[string][]string)
	var form []string
	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		name, formLevel := resolveFailurePath(rawPath, known)
		if formLevel {
			form = append(form, normalized...)
			continue
		}
		fields[name] = append(fields[name], normalized...)
	}

	if len(fields) == 0 {
		fields = nil
	}
	return fields, normalizeMessages(form)
}

func resolveFailurePath(raw string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}
	for _, segment := range stripNumericSegments(dropWrapperSegments(segments)) {
		if _, ok := known[segment]; ok {
			return segment, false
		}
	}
	return "", true
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
	"properties": {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "message", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
