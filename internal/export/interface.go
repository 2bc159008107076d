package export

import (
	"fmt"
	"io"

	"github.com/iksnae/tesouro-gerencial/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(table *internal.NormalizedTable, w io.Writer) error
	Extension() string
}

// tableDocument is the shape shared by the JSON and YAML exporters
type tableDocument struct {
	Headers  []string            `json:"headers" yaml:"headers"`
	Metadata string              `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Rows     []map[string]string `json:"rows" yaml:"rows"`
}

func newTableDocument(table *internal.NormalizedTable) tableDocument {
	return tableDocument{
		Headers:  table.Headers,
		Metadata: table.MetadataText,
		Rows:     table.Rows,
	}
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "csv":
		return &CSVExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json, csv)", format)
	}
}
