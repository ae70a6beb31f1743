package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Result maps field names to error messages. An empty or missing entry
// means the field is valid.
type Result map[string]string

// Validator computes a Result from a complete snapshot. Implementations must
// be pure: same snapshot in, same Result out, no side effects.
type Validator func(field.Snapshot) Result

// Valid reports whether every entry is empty.
func (r Result) Valid() bool {
	for _, msg := range r {
		if msg != "" {
			return false
		}
	}
	return true
}

// Get returns the message recorded for name.
func (r Result) Get(name string) string {
	if r == nil {
		return ""
	}
	return r[name]
}

// Subset keeps only the supplied names. Names without an error are present
// with an empty message so callers can range over the full subset.
func (r Result) Subset(names ...string) Result {
	out := make(Result, len(names))
	for _, name := range names {
		out[name] = r.Get(name)
	}
	return out
}

// Clone returns a shallow copy without empty entries.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for name, msg := range r {
		if msg != "" {
			out[name] = msg
		}
	}
	return out
}

// Compose merges validators in order. The first non-empty message recorded
// for a field wins, so earlier validators take precedence.
func Compose(validators ...Validator) Validator {
	return func(values field.Snapshot) Result {
		out := make(Result)
		for _, validate := range validators {
			if validate == nil {
				continue
			}
			for name, msg := range validate(values) {
				if msg == "" || out[name] != "" {
					continue
				}
				out[name] = msg
			}
		}
		return out
	}
}

// None accepts every snapshot.
func None() Validator {
	return func(field.Snapshot) Result { return Result{} }
}

func check(name, message string, ok func(string) bool) Validator {
	return func(values field.Snapshot) Result {
		if ok(values.String(name)) {
			return Result{}
		}
		return Result{name: message}
	}
}

// Required rejects empty or whitespace-only values.
func Required(name, message string) Validator {
	return check(name, message, func(value string) bool {
		return strings.TrimSpace(value) != ""
	})
}

// Pattern rejects values that do not match re.
func Pattern(name string, re *regexp.Regexp, message string) Validator {
	return check(name, message, re.MatchString)
}

// emailPattern accepts alphanumeric runs joined by single '-', '_' or '.'
// separators on both sides of '@', ending in a 2-3 letter TLD.
var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9]([-_.]?[a-z0-9])*@[a-z0-9]([-_.]?[a-z0-9])*\.[a-z]{2,3}$`)

// EmailPattern exposes the expression used by Email.
func EmailPattern() *regexp.Regexp {
	return emailPattern
}

// Email rejects values that are not a conservative e-mail address.
func Email(name, message string) Validator {
	return Pattern(name, emailPattern, message)
}

// httpURLPattern accepts absolute http(s) URLs with a host.
var httpURLPattern = regexp.MustCompile(`^[Hh][Tt][Tt][Pp][Ss]?://[^\s/?#]+\S*$`)

// HTTPURLPattern exposes the expression used by HTTPURL.
func HTTPURLPattern() *regexp.Regexp {
	return httpURLPattern
}

// HTTPURL rejects non-empty values that are not absolute http(s) URLs.
// Empty values pass; combine with Required when the field is mandatory.
func HTTPURL(name, message string) Validator {
	return check(name, message, func(value string) bool {
		return value == "" || httpURLPattern.MatchString(value)
	})
}

// MinLength rejects values shorter than min characters.
func MinLength(name string, min int, message string) Validator {
	return check(name, message, func(value string) bool {
		return utf8.RuneCountInString(value) >= min
	})
}

// MaxLength rejects values longer than max characters.
func MaxLength(name string, max int, message string) Validator {
	return check(name, message, func(value string) bool {
		return utf8.RuneCountInString(value) <= max
	})
}

// LengthBetween rejects values whose character count falls outside
// [min, max].
func LengthBetween(name string, min, max int, message string) Validator {
	return check(name, message, func(value string) bool {
		n := utf8.RuneCountInString(value)
		return n >= min && n <= max
	})
}

// Equals requires name to hold the same value as other. The error is keyed
// to name, never to other.
func Equals(name, other, message string) Validator {
	return func(values field.Snapshot) Result {
		if values.String(name) == values.String(other) {
			return Result{}
		}
		return Result{name: message}
	}
}
