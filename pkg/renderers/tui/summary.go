package tui

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/formdef"
)

const defaultSummaryTemplate = `{{ title|safe }}
{% for row in rows %}  {{ row.Label|safe }}: {{ row.Value|safe }}
{% endfor %}`

const (
	maskedValue = "********"
	emptyValue  = "(empty)"
)

// SummaryRow is one line of the review screen.
type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows lists every field of def with its current value. Secret
// values are masked.
func SummaryRows(def formdef.Definition, values field.Snapshot) []SummaryRow {
	rows := make([]SummaryRow, 0, len(def.Fields))
	for _, f := range def.Fields {
		value := values.String(f.Name)
		switch {
		case value == "":
			value = emptyValue
		case f.Secret:
			value = maskedValue
		}
		rows = append(rows, SummaryRow{Label: f.DisplayLabel(), Value: value})
	}
	return rows
}

func compileSummary(src string) (*pongo2.Template, error) {
	tmpl, err := pongo2.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("tui: compile summary template: %w", err)
	}
	return tmpl, nil
}

func renderSummary(tmpl *pongo2.Template, def formdef.Definition, values field.Snapshot) (string, error) {
	title := def.Title
	if title == "" {
		title = def.ID
	}
	out, err := tmpl.Execute(pongo2.Context{
		"title": "Review: " + title,
		"rows":  SummaryRows(def, values),
	})
	if err != nil {
		return "", fmt.Errorf("tui: render summary: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}
