// Package csvload reads event spreadsheets exported as CSV into raw rows.
// Columns are located by header name, so exports with reordered or extra
// columns still load.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"oweek/internal/model"
)

// Header names as they appear in the spreadsheet export.
const (
	colID          = "ID"
	colName        = "Event Name"
	colDorm        = "Dorm"
	colLocation    = "Event Location"
	colStart       = "Start Date and Time"
	colEnd         = "End Date and Time"
	colDescription = "Event Description"
	colPublished   = "Published"
	colTags        = "Tags"
	colGroup       = "Group"
)

// ReadFile loads one CSV file. orientation marks the rows as coming from
// the orientation events file.
func ReadFile(path string, orientation bool) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f, orientation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV data into raw rows. The first record is the header.
func Read(r io.Reader, orientation bool) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged exports happen; missing cells read as ""

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Excel writes a UTF-8 BOM in front of the first header cell.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index[colName]; !ok {
		return nil, fmt.Errorf("header has no %q column", colName)
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []model.RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.RawRow{
			ID:          cell(record, colID),
			Name:        cell(record, colName),
			Dorm:        cell(record, colDorm),
			Location:    cell(record, colLocation),
			Start:       cell(record, colStart),
			End:         cell(record, colEnd),
			Description: cell(record, colDescription),
			Published:   cell(record, colPublished),
			Tags:        cell(record, colTags),
			Group:       cell(record, colGroup),
			Orientation: orientation,
		})
	}
	return rows, nil
}
