package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseWarning is a non-fatal row-level issue found during parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ParseResult carries the parsed records plus any row warnings.
type ParseResult struct {
	Records  []Record       `json:"records"`
	Warnings []ParseWarning `json:"warnings"`
}

// Record is one parsed row keyed by header name. Values are raw strings;
// the typed getters below distinguish an absent or blank field from a
// zero value, which the score-merge rules depend on.
type Record map[string]string

// Str returns the trimmed field value, "" when absent.
func (r Record) Str(key string) string {
	return strings.TrimSpace(r[key])
}

// Int returns the field as an integer. ok is false when the field is
// absent, blank, or not numeric — callers fall back to the next alias or
// a default rather than treating it as zero.
func (r Record) Int(key string) (int, bool) {
	v := r.Str(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Tolerate spreadsheet floats like "3.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

// Has reports whether the column exists in this record at all.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Parse reads delimited text into header-keyed records. The first row is
// the header, blank lines are skipped, and rows with mismatched column
// counts are padded or truncated with a warning rather than dropped.
// A missing header row is the one fatal case.
func Parse(data []byte) (*ParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(data)))
	// Column-count mismatches are handled below with pad/truncate.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	// Header trimming deliberately skips the profile template's
	// "In Scope? " column, whose trailing space is part of the name.
	for i, h := range headers {
		headers[i] = strings.Trim(h, "\uFEFF\r\n")
	}
	headerCount := len(headers)

	var (
		records  []Record
		warnings []ParseWarning
	)
	rowNum := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, ParseWarning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		if isBlankRow(row) {
			continue
		}
		if len(row) != headerCount {
			if len(row) < headerCount {
				warnings = append(warnings, ParseWarning{
					Row:     rowNum,
					Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), headerCount),
				})
				padded := make([]string, headerCount)
				copy(padded, row)
				row = padded
			} else {
				warnings = append(warnings, ParseWarning{
					Row:     rowNum,
					Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
				})
				row = row[:headerCount]
			}
		}
		rec := make(Record, headerCount)
		for i, h := range headers {
			rec[h] = row[i]
		}
		records = append(records, rec)
	}

	return &ParseResult{Records: records, Warnings: warnings}, nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
