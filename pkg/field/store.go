package field

import (
	"fmt"
	"sort"
)

// Field is a read-only view of a single named input.
type Field struct {
	Name    string
	Value   any
	Error   string
	Touched bool
}

// Snapshot maps every field name to its current value.
type Snapshot map[string]any

// String returns the named value as a string. Non-string values are
// formatted with fmt.Sprint and missing values yield "".
func (s Snapshot) String(name string) string {
	value, ok := s[name]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

// UnknownFieldError reports an operation on a name that was not registered
// when the Store was created.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field: unknown field %q", e.Name)
}

// Store tracks values, errors, and touched flags for a fixed set of fields.
// It is not safe for concurrent use; the form controller serialises access.
type Store struct {
	names  []string
	fields map[string]*Field
}

// New seeds a Store with one field per entry in initial. Every field starts
// untouched with an empty error.
func New(initial map[string]any) *Store {
	s := &Store{
		names:  make([]string, 0, len(initial)),
		fields: make(map[string]*Field, len(initial)),
	}
	for name, value := range initial {
		s.names = append(s.names, name)
		s.fields[name] = &Field{Name: name, Value: value}
	}
	sort.Strings(s.names)
	return s
}

// Names returns the registered field names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fields[name]
	return ok
}

// Field returns a copy of the named field.
func (s *Store) Field(name string) (Field, error) {
	f, err := s.lookup(name)
	if err != nil {
		return Field{}, err
	}
	return *f, nil
}

// SetValue replaces the value of name and marks that field touched.
func (s *Store) SetValue(name string, value any) error {
	f, err := s.lookup(name)
	if err != nil {
		return err
	}
	f.Value = value
	f.Touched = true
	return nil
}

// MarkTouched flags name as touched without changing its value.
func (s *Store) MarkTouched(name string) error {
	f, err := s.lookup(name)
	if err != nil {
		return err
	}
	f.Touched = true
	return nil
}

// TouchAll marks every field touched.
func (s *Store) TouchAll() {
	if s == nil {
		return
	}
	for _, f := range s.fields {
		f.Touched = true
	}
}

// Snapshot copies the current name to value mapping.
func (s *Store) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s.fields))
	for name, f := range s.fields {
		out[name] = f.Value
	}
	return out
}

// ApplyErrors replaces every field error from a complete validation result.
// Fields missing from result are cleared; unregistered names are ignored.
func (s *Store) ApplyErrors(result map[string]string) {
	if s == nil {
		return
	}
	for name, f := range s.fields {
		f.Error = result[name]
	}
}

// Errors returns name to error for every registered field.
func (s *Store) Errors() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s.fields))
	for name, f := range s.fields {
		out[name] = f.Error
	}
	return out
}

// Touched returns name to touched flag for every registered field.
func (s *Store) Touched() map[string]bool {
	if s == nil {
		return nil
	}
	out := make(map[string]bool, len(s.fields))
	for name, f := range s.fields {
		out[name] = f.Touched
	}
	return out
}

func (s *Store) lookup(name string) (*Field, error) {
	if s == nil {
		return nil, &UnknownFieldError{Name: name}
	}
	f, ok := s.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	return f, nil
}
