package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/korean"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSVBytes resolves the text encoding of a raw CSV upload. The chain is
// UTF-8 (with optional BOM) then EUC-KR/CP949; the first decoder that
// round-trips without error wins.
func decodeCSVBytes(raw []byte) (string, error) {
	trimmed := bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(trimmed) {
		return string(trimmed), nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), nil
	}

	return "", ErrUnsupportedEncoding
}

// readCSVGrid parses decoded CSV text into a rectangular-ish grid; rows may
// have differing cell counts, callers index defensively.
func readCSVGrid(text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading CSV")
		}
		grid = append(grid, record)
	}
	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}
	return grid, nil
}

// cellAt safely indexes a grid row.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
