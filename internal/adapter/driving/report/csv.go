package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes r as comma-separated values. With metadata enabled, a
// block of "# ..." rows padded to the column count precedes the header.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	header := r.header()

	if r.IncludeMetadata {
		for _, m := range r.metaLines() {
			if err := cw.Write(padRow("# "+m, len(header))); err != nil {
				return fmt.Errorf("write csv metadata: %w", err)
			}
		}
		if err := cw.Write(padRow("", len(header))); err != nil {
			return fmt.Errorf("write csv metadata: %w", err)
		}
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range r.Lines {
		if err := cw.Write(r.cells(l)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func padRow(first string, width int) []string {
	row := make([]string, width)
	row[0] = first
	return row
}
