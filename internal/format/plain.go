package format

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const (
	boxWidth         = 100
	boxTitlePadding  = 5
	boxBottomPadding = 2
)

var plainTemplate = template.Must(template.New("plain").Funcs(template.FuncMap{
	"bold":            bold,
	"formatBoxTitle":  formatBoxTitle,
	"formatBoxBottom": formatBoxBottom,
	"join":            func(fields []string, sep string) string { return strings.Join(fields, sep) },
}).Parse(`{{ formatBoxTitle (bold .Title) }}
{{- if .Headers }}
{{ join .Headers " | " }}
{{- end }}
{{- range .Rows }}
{{ join . " | " }}
{{- end }}
{{ formatBoxBottom }}`))

func renderPlain(t Table) (string, error) {
	if t.Title == "" {
		t.Title = strings.Join(t.Headers, " | ")
	}

	var buf bytes.Buffer
	if err := plainTemplate.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("executing plain template: %w", err)
	}

	return buf.String(), nil
}

func bold(s string) string {
	return "\033[1m" + s + "\033[0m"
}

func formatBoxTitle(title string) string {
	cleanTitle := strings.ReplaceAll(strings.ReplaceAll(title, "\033[1m", ""), "\033[0m", "")

	titleMax := boxWidth - boxTitlePadding
	t := cleanTitle
	if len(t) > titleMax {
		t = t[:titleMax]
	}

	dashCount := boxWidth - len(t) - boxTitlePadding
	if dashCount < 0 {
		dashCount = 0
	}

	return fmt.Sprintf("┌─ %s %s┐", title, strings.Repeat("─", dashCount))
}

func formatBoxBottom() string {
	return "└" + strings.Repeat("─", boxWidth-boxBottomPadding) + "┘"
}
