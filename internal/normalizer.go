package internal

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Names of the columns added next to the report's own headers
const (
	MetadataColumn  = "Metadado"
	TimestampColumn = "Timestamp"
)

// headerWindow is how many leading rows are searched for the blank separator
const headerWindow = 10

// NormalizedTable is a report reshaped into named columns
type NormalizedTable struct {
	Headers      []string
	Rows         []map[string]string
	MetadataText string
}

// Columns returns the headers followed by the metadata column
func (t *NormalizedTable) Columns() []string {
	cols := make([]string, 0, len(t.Headers)+1)
	cols = append(cols, t.Headers...)
	return append(cols, MetadataColumn)
}

// Records returns every row with the metadata column filled in
func (t *NormalizedTable) Records() []map[string]string {
	records := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]string, len(row)+1)
		for k, v := range row {
			rec[k] = v
		}
		rec[MetadataColumn] = t.MetadataText
		records[i] = rec
	}
	return records
}

// Documents returns the rows as document-store records, all sharing the
// same instant in the timestamp column
func (t *NormalizedTable) Documents(instant time.Time) []map[string]interface{} {
	docs := make([]map[string]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		doc := make(map[string]interface{}, len(row)+2)
		for k, v := range row {
			doc[k] = v
		}
		doc[MetadataColumn] = t.MetadataText
		doc[TimestampColumn] = instant
		docs[i] = doc
	}
	return docs
}

// Normalize decodes a payload with the decoder matching its declared format
func Normalize(payload *ReportPayload) (*NormalizedTable, error) {
	if payload == nil {
		return nil, &DecodeError{Stage: StageSelect, Err: errors.New("nil payload")}
	}
	switch payload.Format {
	case FormatCSV:
		return DecodeCSV(payload.Bytes)
	case FormatExcel:
		return DecodeWorkbook(payload.Bytes)
	default:
		return nil, &DecodeError{Stage: StageSelect, Err: fmt.Errorf("%s exports are not tabular", payload.Format)}
	}
}

// DecodeCSV decodes a UTF-16 plain text export. The portal writes a banner
// before the CSV body; everything up to the first blank line is kept as
// metadata text.
func DecodeCSV(data []byte) (*NormalizedTable, error) {
	if len(data)%2 != 0 {
		return nil, &DecodeError{Stage: StageTextDecode, Err: fmt.Errorf("truncated UTF-16 input: odd length %d", len(data))}
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, &DecodeError{Stage: StageTextDecode, Err: err}
	}
	// the decoder replaces unpaired surrogates instead of failing
	if bytes.Count(decoded, []byte(string(utf8.RuneError))) > replacementUnits(data) {
		return nil, &DecodeError{Stage: StageTextDecode, Err: errors.New("malformed UTF-16 input: unpaired surrogate")}
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	idx := strings.Index(text, "\n\n")
	if idx < 0 {
		return nil, &DecodeError{Stage: StageTextDecode, Err: ErrMissingPreamble}
	}
	preamble := text[:idx]
	body := strings.TrimLeft(text[idx:], "\n")

	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	grid, err := r.ReadAll()
	if err != nil {
		return nil, &DecodeError{Stage: StageGridParse, Err: err}
	}
	if len(grid) == 0 {
		return nil, &DecodeError{Stage: StageGridParse, Err: errors.New("empty CSV body")}
	}

	grid = padGrid(grid)
	headers := make([]string, len(grid[0]))
	for i, name := range grid[0] {
		headers[i] = strings.TrimSpace(name)
	}

	return buildTable(headers, grid[1:], joinLines(strings.Split(preamble, "\n"))), nil
}

// replacementUnits counts the U+FFFD code units the raw UTF-16 input really
// carries. A big-endian BOM switches the byte order, as in the decoder.
func replacementUnits(data []byte) int {
	bigEndian := len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF
	n := 0
	for i := 0; i+1 < len(data); i += 2 {
		unit := uint16(data[i]) | uint16(data[i+1])<<8
		if bigEndian {
			unit = uint16(data[i])<<8 | uint16(data[i+1])
		}
		if unit == utf8.RuneError {
			n++
		}
	}
	return n
}

// DecodeWorkbook reads the first sheet of an xlsx export as a raw grid and
// reshapes it with NormalizeGrid
func DecodeWorkbook(data []byte) (*NormalizedTable, error) {
	grid, err := ReadGrid(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NormalizeGrid(grid)
}

// NormalizeGrid splits a spreadsheet export into its metadata band, a two
// row header band and the data rows. The header band starts right after the
// last blank row among the first ten rows.
func NormalizeGrid(grid [][]string) (*NormalizedTable, error) {
	grid = padGrid(grid)

	h, err := findHeaderRow(grid)
	if err != nil {
		return nil, err
	}

	metadata := make([]string, 0, h)
	for _, row := range grid[:h] {
		metadata = append(metadata, strings.Join(nonBlank(row), " "))
	}

	width := len(grid[h])
	headers := make([]string, width)
	for c := 0; c < width; c++ {
		headers[c] = strings.Join(nonBlank([]string{grid[h][c], grid[h+1][c]}), " - ")
	}

	return buildTable(headers, grid[h+2:], joinLines(metadata)), nil
}

func findHeaderRow(grid [][]string) (int, error) {
	window := len(grid)
	if window > headerWindow {
		window = headerWindow
	}

	h := -1
	for i := window - 1; i >= 0; i-- {
		if isBlankRow(grid[i]) {
			h = i + 1
			break
		}
	}
	if h < 0 {
		return 0, &DecodeError{Stage: StageHeaderDetection, Err: ErrNoHeaderRow}
	}
	if h+2 > len(grid) {
		return 0, &DecodeError{
			Stage: StageHeaderDetection,
			Err:   fmt.Errorf("truncated grid: header band needs rows %d-%d, grid has %d rows", h, h+1, len(grid)),
		}
	}
	return h, nil
}

func buildTable(headers []string, data [][]string, metadata string) *NormalizedTable {
	headers = uniqueHeaders(headers)

	rows := make([]map[string]string, len(data))
	for i, cells := range data {
		row := make(map[string]string, len(headers))
		for c, name := range headers {
			if c < len(cells) {
				row[name] = cells[c]
			} else {
				row[name] = ""
			}
		}
		rows[i] = row
	}

	return &NormalizedTable{Headers: headers, Rows: rows, MetadataText: metadata}
}

// uniqueHeaders names blank headers after their index and suffixes repeats
// with .1, .2 and so on
func uniqueHeaders(headers []string) []string {
	taken := map[string]bool{MetadataColumn: true, TimestampColumn: true}
	out := make([]string, len(headers))
	for i, h := range headers {
		if h == "" {
			h = fmt.Sprintf("Column %d", i)
		}
		name := h
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// padGrid returns a copy of grid where every row is as wide as the widest one
func padGrid(grid [][]string) [][]string {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func nonBlank(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		if s := strings.TrimSpace(cell); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// joinLines trims each line, drops empty ones and joins the rest with newlines
func joinLines(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}
