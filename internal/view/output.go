package view

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"mrrelease/internal/release"
	"mrrelease/pkg/templates"
)

// Output selects how deployed releases are written.
type Output struct {
	Detailed bool
	JSON     bool
	Template *template.Template
}

// ParseOutput interprets a --format value: "" or "table" for the table (or the
// detailed list), "json" for a JSON array, anything else as a Go template applied
// to each release.Deployed.
func ParseOutput(format string, detailed bool) (Output, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return Output{Detailed: detailed}, nil
	case "json":
		return Output{JSON: true}, nil
	}

	text, err := templates.Load(format)
	if err != nil {
		return Output{}, err
	}
	tmpl, err := templates.Parse("format", text, TemplateFuncs())
	if err != nil {
		return Output{}, fmt.Errorf("invalid format: %w", err)
	}
	return Output{Template: tmpl}, nil
}

// TemplateFuncs are the helpers available to --format templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"status": StatusLabel,
		"time": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return FormatTime(&t)
			case *time.Time:
				return FormatTime(t)
			default:
				return ""
			}
		},
	}
}

// Write renders items according to out.
func (r *Renderer) Write(items []release.Deployed, out Output) error {
	switch {
	case out.JSON:
		if items == nil {
			items = []release.Deployed{}
		}
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case out.Template != nil:
		return templates.RenderEach(r.w, out.Template, items)
	case out.Detailed:
		r.List(items)
	default:
		r.Table(items)
	}
	return nil
}

// Decorated reports whether the output carries the header and captions meant for people.
func (o Output) Decorated() bool {
	return !o.JSON && o.Template == nil
}
