package form

import (
	"log/slog"
	"strings"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger routes controller diagnostics to logger. The default discards
// everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSanitizer transforms values written to the named fields before they
// are stored and validated.
func WithSanitizer(fn func(any) any, names ...string) Option {
	return func(c *Controller) {
		if fn == nil {
			return
		}
		if c.sanitizers == nil {
			c.sanitizers = make(map[string]func(any) any, len(names))
		}
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				c.sanitizers[trimmed] = fn
			}
		}
	}
}

// WithListener registers a change listener at construction time. See
// Controller.Subscribe.
func WithListener(fn func()) Option {
	return func(c *Controller) {
		if fn != nil {
			c.addListener(fn)
		}
	}
}
