package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SampleGrid is laid out like a spreadsheet export: three metadata rows, a
// blank separator, a two-row header band and three data rows
func SampleGrid() [][]string {
	return [][]string{
		{"Execução Orçamentária", "", ""},
		{"Exercício:", "2024", ""},
		{"", "Emitido em 01/02/2024", ""},
		{"", "", ""},
		{"Órgão", "Órgão", "Despesas Empenhadas"},
		{"Código", "Nome", ""},
		{"52000", "Ministério da Defesa", "1.234,56"},
		{"52121", "Comando do Exército", "789,00"},
		{"52131", "Comando da Marinha", ""},
	}
}

// SampleCSV is a plain text export with its banner, before UTF-16 encoding
const SampleCSV = "Tesouro Gerencial\r\nRelatório: Execução 2024\r\n\r\n" +
	"Órgão,Nome,Valor\r\n" +
	"52000,Ministério da Defesa,\"1.234,56\"\r\n" +
	"52121,Comando do Exército,\"789,00\"\r\n"

// XLSXFromGrid builds a workbook whose first sheet holds grid. Empty strings
// leave the cell unset.
func XLSXFromGrid(t *testing.T, grid [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for r, row := range grid {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("Failed to name cell: %v", err)
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				t.Fatalf("Failed to set cell %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

// UTF16 encodes s as little-endian UTF-16 with a byte order mark
func UTF16(t *testing.T, s string) []byte {
	t.Helper()
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		t.Fatalf("Failed to encode UTF-16: %v", err)
	}
	return data
}
