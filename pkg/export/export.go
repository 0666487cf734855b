package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/analyzer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

// Derived columns appended after the original channels, in export order.
var derivedColumns = []string{
	"Lambda",
	"TPS_OK",
	"Lambda_OK",
	"Fuel_OK",
	"IAT_OK",
	"ECT_OK",
	"OUT",
	"dt",
	"Cheat_Start",
	"Qualified",
}

// AnnotatedHeader returns the column names of the annotated export: the
// original channels followed by the derived analysis columns.
func AnnotatedHeader(t *telemetry.Table) []string {
	header := make([]string, 0, len(t.Columns)+len(derivedColumns))
	header = append(header, t.Columns...)
	return append(header, derivedColumns...)
}

// annotatedRecord builds the export record for row i. Original cells are
// reproduced verbatim; derived floats use the shortest exact representation
// and NaN becomes an empty cell.
func annotatedRecord(t *telemetry.Table, f *analyzer.Frame, i int) []string {
	record := make([]string, len(t.Columns)+len(derivedColumns))
	for j, name := range t.Columns {
		record[j] = t.Raw[i][name]
	}

	d := record[len(t.Columns):]
	d[0] = formatFloat(f.Lambda)
	d[1] = strconv.FormatBool(f.TPSOK)
	d[2] = strconv.FormatBool(f.LambdaOK)
	d[3] = strconv.FormatBool(f.FuelOK)
	d[4] = strconv.FormatBool(f.IATOK)
	d[5] = strconv.FormatBool(f.ECTOK)
	d[6] = strconv.FormatBool(f.Out)
	d[7] = formatFloat(f.Dt)
	d[8] = strconv.FormatBool(f.CheatStart)
	d[9] = strconv.FormatBool(f.Qualified)

	return record
}

// WriteAnnotatedCSV writes the input table with the analysis columns appended.
func WriteAnnotatedCSV(w io.Writer, t *telemetry.Table, res *analyzer.Result) error {
	if t.Len() != len(res.Frames) {
		return fmt.Errorf("table has %d rows but result has %d frames", t.Len(), len(res.Frames))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(AnnotatedHeader(t)); err != nil {
		return err
	}
	for i := range res.Frames {
		if err := cw.Write(annotatedRecord(t, &res.Frames[i], i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Preview returns up to limit annotated records for on-screen display.
func Preview(t *telemetry.Table, res *analyzer.Result, limit int) [][]string {
	n := len(res.Frames)
	if limit > 0 && n > limit {
		n = limit
	}
	records := make([][]string, n)
	for i := 0; i < n; i++ {
		records[i] = annotatedRecord(t, &res.Frames[i], i)
	}
	return records
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
