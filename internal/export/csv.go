package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/iksnae/tesouro-gerencial/internal"
)

// CSVExporter writes the table with the metadata column appended
type CSVExporter struct{}

// Export writes a header line followed by one line per record
func (e *CSVExporter) Export(table *internal.NormalizedTable, w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := table.Columns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range table.Records() {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = rec[c]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Extension returns the file extension for this format
func (e *CSVExporter) Extension() string {
	return "csv"
}
