package invoice

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"CscxSaas/api/constants"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ReadInvoiceFile routes file content to the right reader based on the
// filename extension and returns the header row plus data rows. An empty
// header/row set is a valid (if useless) result; only an undecodable file is
// an error.
func ReadInvoiceFile(data []byte, filename string) ([]string, []RawRow, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", ".txt":
		return ReadCSV(data)
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	default:
		return nil, nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// ReadCSV parses delimited text. Encoding is probed (UTF-8 with a Latin-1
// fallback), a BOM is stripped, and the delimiter is detected from the header
// line. Quoted fields may contain the delimiter and embedded newlines; a
// doubled quote inside a quoted field is a literal quote. SourceRow is the
// physical line a record starts on, so blank lines and the extra lines of
// multi-line quoted records still advance the numbering.
func ReadCSV(data []byte) ([]string, []RawRow, error) {
	text := decodeText(data)
	if strings.TrimSpace(text) == "" {
		return []string{}, []RawRow{}, nil
	}

	delimiter := detectDelimiter(firstLine(text))

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var headers []string
	rows := []RawRow{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line, _ := r.FieldPos(0)
		if allEmptyCells(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = cleanCell(h)
			}
			continue
		}
		rows = append(rows, rawRowFrom(headers, record, line))
	}
	if headers == nil {
		headers = []string{}
	}
	return headers, rows, nil
}

// decodeText strips a UTF-8 BOM and falls back to Latin-1 when the bytes are
// not valid UTF-8.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// detectDelimiter counts candidate delimiters on the header line and picks
// the most frequent, defaulting to comma.
func detectDelimiter(headerLine string) rune {
	best, bestCount := ',', 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(headerLine, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return text[:i]
	}
	return text
}

// readXLSX reads the first sheet of an xlsx workbook: row 1 is the header
// row, all-empty rows are skipped, and native date cells are serialized to
// YYYY-MM-DD so the rest of the pipeline only ever sees strings.
func readXLSX(data []byte) ([]string, []RawRow, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer xl.Close()

	sheetName := xl.GetSheetName(0)
	formatted, err := xl.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	raw, err := xl.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		raw = formatted
	}

	if len(formatted) == 0 {
		return []string{}, []RawRow{}, nil
	}

	headers := make([]string, len(formatted[0]))
	for i, h := range formatted[0] {
		headers[i] = cleanCell(h)
	}

	rows := []RawRow{}
	for i, row := range formatted[1:] {
		if allEmptyCells(row) {
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			rawVal := ""
			if i+1 < len(raw) && j < len(raw[i+1]) {
				rawVal = raw[i+1][j]
			}
			cells[j] = normalizeWorkbookCell(v, rawVal)
		}
		rows = append(rows, rawRowFrom(headers, cells, i+2))
	}
	return headers, rows, nil
}

// normalizeWorkbookCell converts a date-formatted cell to its ISO string
// using the underlying Excel serial. Non-date cells pass through untouched.
func normalizeWorkbookCell(formatted, raw string) string {
	formatted = strings.TrimSpace(formatted)
	if raw == "" || raw == formatted {
		return formatted
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return formatted
	}
	if !looksLikeDate(formatted) {
		return formatted
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return formatted
	}
	return t.Format("2006-01-02")
}

// looksLikeDate is a cheap check that a formatted cell renders as a calendar
// date rather than a plain number.
func looksLikeDate(s string) bool {
	if !strings.ContainsAny(s, "/-.") {
		return false
	}
	layouts := []string{
		"01-02-06", "1-2-06", "01/02/06", "1/2/06",
		"01-02-2006", "1-2-2006", "01/02/2006", "1/2/2006",
		"2006-01-02", "2006/01/02", "02-Jan-06", "2-Jan-06",
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// readXLS reads the first sheet of a legacy xls workbook.
func readXLS(data []byte) ([]string, []RawRow, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, nil, fmt.Errorf("no sheets found in xls file")
	}

	grid := [][]string{}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, []string{})
			continue
		}
		cells := []string{}
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}

	if len(grid) == 0 || allEmptyCells(grid[0]) {
		return []string{}, []RawRow{}, nil
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = cleanCell(h)
	}
	rows := []RawRow{}
	for i, row := range grid[1:] {
		if allEmptyCells(row) {
			continue
		}
		rows = append(rows, rawRowFrom(headers, row, i+2))
	}
	return headers, rows, nil
}

func rawRowFrom(headers, cells []string, sourceRow int) RawRow {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(cells) {
			values[h] = cleanCell(cells[i])
		} else {
			values[h] = ""
		}
	}
	return RawRow{SourceRow: sourceRow, Values: values}
}

// cleanCell trims a cell, first converting the non-breaking spaces some
// billing exports embed in header cells to plain spaces.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, constants.NBSP, " "))
}

func allEmptyCells(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
