// Package statement reads raw carrier commission statements from disk and
// hands their rows to the column mapper.
package statement

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is one raw statement table: every row as extracted, no header split
// yet. Table detection and header resolution happen in the mapper.
type Table struct {
	SourceFile string
	Rows       [][]string
}

// Read loads every row of a statement file. Supported formats: .xlsx, .csv.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, eris.Errorf("statement: unsupported file format %s", filepath.Ext(path))
	}
}

func readXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "statement: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("statement: no sheets in %s", path)
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return &Table{SourceFile: filepath.Base(path), Rows: rows}, nil
}

// readCSV keeps raw positional cells: statement schemas are unknown until
// the mapper resolves them, so no struct decoding applies here.
func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "statement: open csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "statement: read csv %s", path)
		}
		rows = append(rows, record)
	}
	return &Table{SourceFile: filepath.Base(path), Rows: rows}, nil
}
