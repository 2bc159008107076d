package internal

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadGrid returns the first sheet of a workbook as rows of cell text, with
// no header interpretation. Blank rows inside the used range come back as
// empty slices.
func ReadGrid(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Stage: StageGridParse, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Stage: StageGridParse, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{Stage: StageGridParse, Err: err}
	}
	return rows, nil
}
