// Package sanitize cleans free-text input before it reaches form state.
package sanitize

import (
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Text strips every HTML element and trims surrounding whitespace. Entities
// produced by the policy are decoded so "a & b" round-trips unchanged.
func Text(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := strictPolicy().Sanitize(trimmed)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// URL keeps absolute http(s) URLs and returns "" for anything else.
func URL(raw string) string {
	cleaned := Text(raw)
	if cleaned == "" {
		return ""
	}
	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Host == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed.String()
	default:
		return ""
	}
}

// URLInput normalises absolute http(s) URLs like URL. Anything else is
// returned as stripped text so a validator can report it instead of the
// input disappearing.
func URLInput(raw string) string {
	if kept := URL(raw); kept != "" {
		return kept
	}
	return Text(raw)
}

// Value applies Text to string values and passes everything else through.
func Value(value any) any {
	if str, ok := value.(string); ok {
		return Text(str)
	}
	return value
}
