package converter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/tabjson/internal/types"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFileData reads the header and every data row of a tabular file.
// .xlsx files are read from their first worksheet; anything else is parsed
// as comma-separated text. An empty file yields no headers and no rows.
func ReadFileData(filePath string) (*types.FileData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".xlsx":
		return readXLSXData(filePath)
	default:
		return readCSVData(filePath)
	}
}

func readCSVData(filePath string) (*types.FileData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, sourceError(filePath, err)
	}
	defer file.Close()

	return parseCSV(file, filePath)
}

func parseCSV(r io.Reader, filePath string) (*types.FileData, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	data := &types.FileData{}

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return data, nil
	}
	if err != nil {
		return nil, csvError(filePath, err)
	}
	data.Headers = headers

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(filePath, err)
		}
		data.Rows = append(data.Rows, record)
	}

	return data, nil
}

// csvError separates parse failures from failures of the underlying read.
func csvError(filePath string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return rowError(filePath, perr.StartLine, perr)
	}
	return sourceError(filePath, err)
}

func readXLSXData(filePath string) (*types.FileData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, sourceError(filePath, err)
		}
		return nil, rowError(filePath, 0, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, rowError(filePath, 0, err)
	}

	data := &types.FileData{}
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		if data.Headers == nil {
			data.Headers = row
			continue
		}
		// GetRows drops trailing empty cells; a worksheet has no short rows.
		for len(row) < len(data.Headers) {
			row = append(row, "")
		}
		data.Rows = append(data.Rows, row)
	}

	return data, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
