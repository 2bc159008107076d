package export

import (
	"io"

	"github.com/iksnae/tesouro-gerencial/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports a table in YAML format
type YAMLExporter struct{}

// Export writes headers, metadata and rows
func (e *YAMLExporter) Export(table *internal.NormalizedTable, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(newTableDocument(table))
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
