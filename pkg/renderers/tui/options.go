package tui

import "log/slog"

// Theme captures optional prefixes applied to printed messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithSummaryTemplate replaces the pongo2 template used for the review
// screen. The template receives title and rows (Label, Value).
func WithSummaryTemplate(src string) Option {
	return func(r *Runner) {
		if src != "" {
			r.summarySource = src
		}
	}
}

// WithLogger routes runner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
