package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of a workbook into the same record
// shape as Parse, so both file formats flow through one normalization
// path.
func ParseXLSX(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet: no header row found")
	}

	headers := rows[0]
	for i, h := range headers {
		headers[i] = strings.Trim(h, "\uFEFF\r\n")
	}
	headerCount := len(headers)

	var (
		records  []Record
		warnings []ParseWarning
	)
	for rowNum, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		// excelize drops trailing empty cells; pad silently, warn only
		// on extra columns as the CSV path does.
		if len(row) > headerCount {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum + 2,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
			})
			row = row[:headerCount]
		}
		rec := make(Record, headerCount)
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return &ParseResult{Records: records, Warnings: warnings}, nil
}
