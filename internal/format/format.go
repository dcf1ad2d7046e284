// Package format renders provider-neutral domain data for the CLI's
// `--format {plain,csv,toml,pipe}` flag. plain keeps the teacher's
// text/template ASCII-box rendering; csv, toml and pipe are tabular
// renderings over the same Table shape so every list verb gets all four
// formats for free.
package format

import "fmt"

// Kind names one of the four supported output formats.
type Kind string

const (
	Plain Kind = "plain"
	CSV   Kind = "csv"
	TOML  Kind = "toml"
	Pipe  Kind = "pipe"
)

// Table is the provider-neutral tabular view any domain list renders as.
// Title is shown only by Plain; Headers/Rows drive all four formats.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Render dispatches t to the renderer named by kind.
func Render(kind Kind, t Table) (string, error) {
	switch kind {
	case CSV:
		return renderCSV(t)
	case TOML:
		return renderTOML(t)
	case Pipe:
		return renderPipe(t)
	case Plain, "":
		return renderPlain(t)
	default:
		return "", fmt.Errorf("unknown format %q", kind)
	}
}
