package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/tesouro-gerencial/internal"
)

// JSONExporter exports a table as one pretty-printed JSON document
type JSONExporter struct{}

// Export writes headers, metadata and rows
func (e *JSONExporter) Export(table *internal.NormalizedTable, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(newTableDocument(table))
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
