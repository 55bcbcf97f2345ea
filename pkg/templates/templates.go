package templates

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
)

// FilePrefix marks a format argument naming a template file instead of inline text.
const FilePrefix = "@"

// BaseFuncs are available to every template.
func BaseFuncs() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

// Load returns the template text for a format argument.
// "@path" reads the template from path; anything else is the template itself.
// Escaped "\t" and "\n" sequences are expanded so formats can be typed on one line.
func Load(format string) (string, error) {
	if path, ok := strings.CutPrefix(format, FilePrefix); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("template file not found: %w", err)
		}
		return string(content), nil
	}

	replacer := strings.NewReplacer(`\t`, "\t", `\n`, "\n")
	return replacer.Replace(format), nil
}

// Parse parses text using Go's text/template package with BaseFuncs and funcs.
func Parse(name, text string, funcs template.FuncMap) (*template.Template, error) {
	tmpl := template.New(name).Funcs(BaseFuncs())
	if funcs != nil {
		tmpl = tmpl.Funcs(funcs)
	}

	tmpl, err := tmpl.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl, nil
}

// Render executes the template with data and returns the result.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// RenderEach executes the template once per item, writing each result on its own line.
func RenderEach[T any](w io.Writer, tmpl *template.Template, items []T) error {
	for _, item := range items {
		rendered, err := Render(tmpl, item)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, strings.TrimSuffix(rendered, "\n")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
