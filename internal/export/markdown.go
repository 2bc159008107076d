package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/tesouro-gerencial/internal"
)

// MarkdownExporter exports a table as a Markdown document
type MarkdownExporter struct{}

// Export writes the metadata as a quote block followed by a pipe table
func (e *MarkdownExporter) Export(table *internal.NormalizedTable, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Report\n\n")

	if table.MetadataText != "" {
		for _, line := range strings.Split(table.MetadataText, "\n") {
			_, _ = fmt.Fprintf(w, "> %s  \n", escapeMarkdown(line))
		}
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintf(w, "**Rows:** %d\n\n", len(table.Rows))

	if len(table.Headers) == 0 {
		return nil
	}

	cells := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		cells[i] = escapeCell(h)
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	_, _ = fmt.Fprintf(w, "|%s\n", strings.Repeat(" --- |", len(table.Headers)))

	for _, row := range table.Rows {
		for i, h := range table.Headers {
			cells[i] = escapeCell(row[h])
		}
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | ")); err != nil {
			return err
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	return strings.ReplaceAll(text, "__", "\\_\\_")
}

// escapeCell keeps a value on one table line
func escapeCell(text string) string {
	text = escapeMarkdown(text)
	text = strings.ReplaceAll(text, "|", "\\|")
	return strings.ReplaceAll(text, "\n", "<br>")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
