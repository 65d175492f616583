package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/spendlens/internal/models"
)

const (
	FormatDelimited = "delimited"
	FormatXLSX      = "xlsx"
	FormatXLS       = "xls"

	// delimiterSampleLines is how many records are inspected per delimiter candidate
	delimiterSampleLines = 10
)

// CandidateDelimiters are tried in this order; earlier wins on equal score
var CandidateDelimiters = []rune{',', '\t', '|', ';'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser turns raw source bytes into header-keyed rows
type Parser struct {
	logger *log.Logger
}

// NewParser creates a new parser instance
func NewParser(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// ParseTable parses one source. Workbooks are chosen by extension or file
// signature, everything else is treated as delimiter-separated text.
func (p *Parser) ParseTable(name string, data []byte) (*models.SourceTable, error) {
	format := tableFormat(name, data)
	p.logger.Debug("parsing source", "source", name, "format", format)

	switch format {
	case FormatXLSX:
		return p.ParseXLSX(name, bytes.NewReader(data))
	case FormatXLS:
		return p.ParseXLS(name, data)
	default:
		return p.ParseDelimited(name, data)
	}
}

// ParseDelimited parses delimiter-separated text with a header row
func (p *Parser) ParseDelimited(name string, data []byte) (*models.SourceTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Source: name, Err: ErrEmptySource}
	}

	delimiter := DetectDelimiter(data)
	p.logger.Debug("detected delimiter", "source", name, "delimiter", strconv.QuoteRune(delimiter))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // width is checked against the header below

	// Read header row
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &ParseError{Source: name, Err: ErrEmptySource}
		}
		return nil, &ParseError{Source: name, Row: 1, Err: fmt.Errorf("failed to read headers: %w", err)}
	}
	if isEmptyRow(headers) {
		return nil, &ParseError{Source: name, Row: 1, Err: ErrEmptySource}
	}
	headers = trimHeaders(headers)

	table := &models.SourceTable{
		Name:    name,
		Format:  FormatDelimited,
		Headers: headers,
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Source: name, Row: csvErr.StartLine, Err: csvErr.Err}
			}
			return nil, &ParseError{Source: name, Err: err}
		}

		// Skip empty rows
		if isEmptyRow(record) {
			continue
		}

		if len(record) != len(headers) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Source: name,
				Row:    line,
				Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrRaggedRow, len(headers), len(record)),
			}
		}

		table.Rows = append(table.Rows, buildRow(headers, record))
	}

	p.logger.Debug("parsed delimited source", "source", name, "rows", len(table.Rows))
	return table, nil
}

// ParseXLSX parses the first sheet of a workbook; its first row is the header
func (p *Parser) ParseXLSX(name string, r io.Reader) (*models.SourceTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Source: name, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Source: name, Err: ErrEmptySource}
	}

	// Raw values keep amounts free of display formatting; dates are
	// rebuilt from their serial numbers below
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Source: name, Err: fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 || isEmptyRow(rows[0]) {
		return nil, &ParseError{Source: name, Err: ErrEmptySource}
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	headers := trimHeaders(rows[0])
	table := &models.SourceTable{
		Name:    name,
		Format:  FormatXLSX,
		Headers: headers,
	}

	for i, record := range rows[1:] {
		if isEmptyRow(record) {
			continue
		}
		if len(record) > len(headers) {
			return nil, &ParseError{
				Source: name,
				Row:    i + 2,
				Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrRaggedRow, len(headers), len(record)),
			}
		}
		// GetRows drops trailing empty cells
		for len(record) < len(headers) {
			record = append(record, "")
		}
		for col, value := range record {
			if date, ok := xlsxDateCell(f, sheets[0], col+1, i+2, value, date1904); ok {
				record[col] = date
			}
		}
		table.Rows = append(table.Rows, buildRow(headers, record))
	}

	p.logger.Debug("parsed xlsx source", "source", name, "sheet", sheets[0], "rows", len(table.Rows))
	return table, nil
}

// xlsxDateFormats are the built-in number formats that display a calendar date
var xlsxDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// xlsxDateCell renders a date-styled serial number as an ISO date
func xlsxDateCell(f *excelize.File, sheet string, col, row int, value string, date1904 bool) (string, bool) {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", false
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateStyle(style) {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return xlsxDateFormats[style.NumFmt]
}

// isDateFormatCode looks for day or year tokens outside quoted literals and
// [bracketed] sections such as colors and locales
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'd' || r == 'y':
			return true
		}
	}
	return false
}

// ParseXLS parses the first sheet of a legacy BIFF workbook
func (p *Parser) ParseXLS(name string, data []byte) (table *models.SourceTable, err error) {
	// extrame/xls panics on some corrupt workbooks
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, &ParseError{Source: name, Err: fmt.Errorf("failed to open workbook: %v", r)}
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Source: name, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}

	sheet := workbook.GetSheet(0)
	if sheet == nil || sheet.Row(0) == nil {
		return nil, &ParseError{Source: name, Err: ErrEmptySource}
	}

	header := readXLSRow(sheet.Row(0), sheet.Row(0).LastCol())
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	if isEmptyRow(header) {
		return nil, &ParseError{Source: name, Row: 1, Err: ErrEmptySource}
	}

	headers := trimHeaders(header)
	table = &models.SourceTable{
		Name:    name,
		Format:  FormatXLS,
		Headers: headers,
	}

	for i := 1; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}

		record := readXLSRow(row, max(row.LastCol(), len(headers)))
		if isEmptyRow(record) {
			continue
		}
		if !isEmptyRow(record[len(headers):]) {
			return nil, &ParseError{
				Source: name,
				Row:    i + 1,
				Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrRaggedRow, len(headers), len(record)),
			}
		}
		table.Rows = append(table.Rows, buildRow(headers, record[:len(headers)]))
	}

	p.logger.Debug("parsed xls source", "source", name, "sheet", sheet.Name, "rows", len(table.Rows))
	return table, nil
}

func readXLSRow(row *xls.Row, width int) []string {
	cells := make([]string, width)
	for j := range cells {
		cells[j] = row.Col(j)
	}
	return cells
}

// DetectDelimiter picks the candidate delimiter that splits the leading
// records into the most consistent, widest shape. Defaults to comma.
func DetectDelimiter(data []byte) rune {
	best := ','
	bestConsistent, bestWidth := 0, 0

	for _, candidate := range CandidateDelimiters {
		consistent, width := scoreDelimiter(data, candidate)
		if width < 2 {
			continue
		}
		if consistent > bestConsistent || (consistent == bestConsistent && width > bestWidth) {
			best, bestConsistent, bestWidth = candidate, consistent, width
		}
	}

	return best
}

// scoreDelimiter returns how many sampled records share the header width, and that width
func scoreDelimiter(data []byte, delimiter rune) (int, int) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	width, consistent := 0, 0
	for i := 0; i < delimiterSampleLines; i++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, 0
		}
		if i == 0 {
			width = len(record)
		}
		if len(record) == width {
			consistent++
		}
	}

	return consistent, width
}

// ParseAmount parses amount strings, handling currency symbols, thousands
// separators, decimal commas and accounting-style parentheses
func ParseAmount(amountStr string) (float64, error) {
	cleaned := strings.TrimSpace(amountStr)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}

	// Remove currency symbols and spacing
	for _, symbol := range []string{"$", "€", "£", "₹", "Rs.", "USD", "EUR", " ", "\u00a0"} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = normalizeDecimalMark(cleaned)

	// Handle empty amounts
	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount: %s", amountStr)
	}

	if negative {
		amount = -amount
	}
	return amount, nil
}

// normalizeDecimalMark rewrites an amount to use "." as the decimal mark and
// no grouping. When both marks appear the last one is the decimal mark. A lone
// comma followed by one or two digits is a decimal comma; any other comma groups
// thousands. Repeated dots group thousands.
func normalizeDecimalMark(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			if decimals := len(s) - lastComma - 1; decimals >= 1 && decimals <= 2 {
				return strings.Replace(s, ",", ".", 1)
			}
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func trimHeaders(headers []string) []string {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}
	return trimmed
}

func buildRow(headers, record []string) models.Row {
	row := make(models.Row, len(headers))
	for i, h := range headers {
		row[h] = record[i]
	}
	return row
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
