package format

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// tomlRow is the keyed shape encoded per Table row, pairing each header
// with its value so the encoder doesn't need positional array indices.
type tomlRow map[string]string

func renderTOML(t Table) (string, error) {
	rows := make([]tomlRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := make(tomlRow, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				r[h] = row[i]
			}
		}
		rows = append(rows, r)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(struct {
		Entry []tomlRow `toml:"entry"`
	}{Entry: rows}); err != nil {
		return "", fmt.Errorf("encoding toml: %w", err)
	}

	return buf.String(), nil
}
