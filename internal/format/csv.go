package format

import (
	"encoding/csv"
	"fmt"
	"strings"
)

func renderCSV(t Table) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if len(t.Headers) > 0 {
		if err := w.Write(t.Headers); err != nil {
			return "", fmt.Errorf("writing csv header: %w", err)
		}
	}

	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}

	return buf.String(), nil
}
