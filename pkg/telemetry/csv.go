package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseCSV reads a datalogger export into a Table. The first record is the
// header. Cells that do not parse as numbers become NaN rather than failing
// the whole file; real logs carry dropouts and sensor glitches.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	t := &Table{Columns: columns}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+2, err)
		}

		row := make(Row, len(columns))
		raw := make(map[string]string, len(columns))
		for i, name := range columns {
			if i >= len(record) {
				row[name] = math.NaN()
				raw[name] = ""
				continue
			}
			cell := strings.TrimSpace(record[i])
			raw[name] = cell
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				v = math.NaN()
			}
			row[name] = v
		}
		t.Rows = append(t.Rows, row)
		t.Raw = append(t.Raw, raw)
	}

	return t, nil
}
