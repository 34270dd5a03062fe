package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"tiledash/internal/util"
)

// Table is a raw upload after parsing but before column reconciliation.
type Table struct {
	Headers []string
	Rows    [][]string

	// HeaderRecovered reports that row 1 was a banner/placeholder and the
	// real header was taken from row 2.
	HeaderRecovered bool
}

// bannerCaption marks the known spurious title row some exports carry in
// row one, with the real column names pushed down to row two.
const bannerCaption = "Checklist"

func ReadTable(fileName string, data []byte) (Table, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return readCSV(data)
	case ".xlsx", ".xls":
		return readXLSX(data)
	default:
		return Table{}, fmt.Errorf("unsupported file type: %s", fileName)
	}
}

func readCSV(data []byte) (Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("empty table: no header row")
	}
	return recoverHeader(Table{Headers: records[0], Rows: records[1:]}), nil
}

func readXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("empty workbook: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("empty table: no header row")
	}
	return recoverHeader(Table{Headers: rows[0], Rows: rows[1:]}), nil
}

// recoverHeader re-reads the table with row 2 as the header when the first
// detected column name is a placeholder or the known banner caption.
func recoverHeader(t Table) Table {
	if len(t.Headers) == 0 || !isPlaceholderHeader(t.Headers[0]) || len(t.Rows) == 0 {
		return t
	}
	return Table{Headers: t.Rows[0], Rows: t.Rows[1:], HeaderRecovered: true}
}

func isPlaceholderHeader(cell string) bool {
	trimmed := util.NormalizeSpaces(cell)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "unnamed") {
		return true
	}
	return strings.EqualFold(trimmed, bannerCaption)
}
