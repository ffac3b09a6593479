package ingest

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

func openWorkbook(raw []byte) (*excelize.File, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	return book, nil
}

// excelGrid reads the first sheet of a workbook as a plain grid; the first
// row is expected to carry column headers.
func excelGrid(raw []byte) ([][]string, error) {
	book, err := openWorkbook(raw)
	if err != nil {
		return nil, err
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	grid, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}
	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}
	return grid, nil
}

// orderedSheets returns the workbook's sheets with preferred (marker-named)
// sheets first. Some users re-save the workbook and the sheet order changes,
// so every sheet gets scanned instead of assuming the marker sheet is first.
func orderedSheets(book *excelize.File, marker string) []string {
	var preferred, others []string
	for _, name := range book.GetSheetList() {
		if strings.Contains(name, marker) {
			preferred = append(preferred, name)
		} else {
			others = append(others, name)
		}
	}
	return append(preferred, others...)
}
