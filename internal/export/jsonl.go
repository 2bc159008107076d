package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/tesouro-gerencial/internal"
)

// JSONLExporter exports one record per line, metadata column included
type JSONLExporter struct{}

// Export writes each record as a single JSON line
func (e *JSONLExporter) Export(table *internal.NormalizedTable, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, rec := range table.Records() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
