// Package dataset reads questionnaire answers exported as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names of the questionnaire export.
const (
	ColumnCategory  = "Category"
	ColumnQuestion  = "Question"
	ColumnAnswer    = "Answer"
	ColumnScore     = "Score"
	ColumnMaxWeight = "MaxWeight"
	ColumnComment   = "Comment"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{ColumnCategory, ColumnQuestion, ColumnAnswer, ColumnScore, ColumnMaxWeight}

// ErrMissingColumns is wrapped by MissingColumnsError.
var ErrMissingColumns = errors.New("dataset is missing required columns")

// MissingColumnsError lists required columns absent from the header row.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s (expected %s)",
		ErrMissingColumns, strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// Row is one answered question. Answer, Score and MaxWeight are nil when the
// cell is empty.
type Row struct {
	Category  string `json:"category"`
	Question  string `json:"question"`
	Answer    any    `json:"answer"`
	Score     any    `json:"score"`
	MaxWeight any    `json:"max_weight"`
	Comment   string `json:"comment,omitempty"`
}

// Dataset is the ordered set of rows of one questionnaire.
type Dataset struct {
	Rows        []Row
	HasComments bool
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Categories returns the distinct categories in order of first appearance.
func (d *Dataset) Categories() []string {
	if d == nil {
		return nil
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, row := range d.Rows {
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		categories = append(categories, row.Category)
	}
	return categories
}

// ReadFile reads a dataset from a CSV file.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV with a header row. Column order does not matter and extra
// columns are ignored. Nothing is returned when a required column is missing.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnsError{Missing: append([]string(nil), RequiredColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := indexColumns(header)

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	commentIdx, hasComments := columns[ColumnComment]

	ds := &Dataset{HasComments: hasComments}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		if isBlank(record) {
			continue
		}

		row := Row{
			Category:  cellString(record, columns[ColumnCategory]),
			Question:  cellString(record, columns[ColumnQuestion]),
			Answer:    cell(record, columns[ColumnAnswer]),
			Score:     cell(record, columns[ColumnScore]),
			MaxWeight: cell(record, columns[ColumnMaxWeight]),
		}
		if hasComments {
			row.Comment = cellString(record, commentIdx)
		}

		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := columns[name]; ok {
			continue
		}
		columns[name] = i
	}
	return columns
}

// missingTokens are the cell values spreadsheet exports use for a missing
// value. They are matched case-sensitively after trimming.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// cell returns nil for absent cells and missing-value tokens.
func cell(record []string, idx int) any {
	if idx >= len(record) {
		return nil
	}
	if _, ok := missingTokens[strings.TrimSpace(record[idx])]; ok {
		return nil
	}
	return record[idx]
}

func cellString(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
