package internal

// CreateTestTable creates a small normalized table for tests
func CreateTestTable() *NormalizedTable {
	return &NormalizedTable{
		Headers: []string{"Órgão - Código", "Órgão - Nome", "Valor"},
		Rows: []map[string]string{
			{"Órgão - Código": "52000", "Órgão - Nome": "Ministério da Defesa", "Valor": "1.234,56"},
			{"Órgão - Código": "52121", "Órgão - Nome": "Comando do Exército", "Valor": "789,00"},
		},
		MetadataText: "Execução Orçamentária\nAno: 2024",
	}
}

// CreateTestTableWithRows creates a table with the given headers and rows and no metadata
func CreateTestTableWithRows(headers []string, rows []map[string]string) *NormalizedTable {
	return &NormalizedTable{
		Headers: headers,
		Rows:    rows,
	}
}
