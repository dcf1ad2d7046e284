package format

import "strings"

// renderPipe joins header and rows with "|", one line per row, the
// classic Unix pipe-friendly tabular form for piping into cut/awk.
func renderPipe(t Table) (string, error) {
	var lines []string
	if len(t.Headers) > 0 {
		lines = append(lines, strings.Join(t.Headers, "|"))
	}
	for _, row := range t.Rows {
		lines = append(lines, strings.Join(row, "|"))
	}

	return strings.Join(lines, "\n"), nil
}
