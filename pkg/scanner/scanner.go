package scanner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

// ChannelReport summarizes one column of a log file.
type ChannelReport struct {
	Name     string
	Samples  int
	Missing  int
	Min      float64
	Max      float64
	Mean     float64
	Required bool
	Lambda   bool
}

// ScanChannels profiles every column of the table: value range, mean, and
// how many cells failed to parse. Used to sanity-check a log before
// analysis, especially when channel naming is in doubt.
func ScanChannels(t *telemetry.Table) []ChannelReport {
	required := make(map[string]bool, len(telemetry.RequiredChannels))
	for _, name := range telemetry.RequiredChannels {
		required[name] = true
	}

	reports := make([]ChannelReport, 0, len(t.Columns))
	for _, name := range t.Columns {
		r := ChannelReport{
			Name:     name,
			Required: required[name],
			Lambda:   strings.Contains(strings.ToLower(name), "lambda"),
			Min:      math.NaN(),
			Max:      math.NaN(),
			Mean:     math.NaN(),
		}

		var sum float64
		for i := range t.Rows {
			v := t.Value(i, name)
			if math.IsNaN(v) {
				r.Missing++
				continue
			}
			if r.Samples == 0 || v < r.Min {
				r.Min = v
			}
			if r.Samples == 0 || v > r.Max {
				r.Max = v
			}
			sum += v
			r.Samples++
		}
		if r.Samples > 0 {
			r.Mean = sum / float64(r.Samples)
		}

		reports = append(reports, r)
	}

	return reports
}

// MissingRequired returns the required channels absent from the table,
// in check order.
func MissingRequired(t *telemetry.Table) []string {
	var missing []string
	for _, name := range telemetry.RequiredChannels {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// DisplayReports prints the channel profile as a table.
func DisplayReports(t *telemetry.Table, reports []ChannelReport) {
	pterm.DefaultSection.Println("Channel Profile")

	data := pterm.TableData{
		{"Channel", "Role", "Samples", "Missing", "Min", "Max", "Mean"},
	}
	for _, r := range reports {
		role := ""
		switch {
		case r.Required:
			role = "required"
		case r.Lambda:
			role = "lambda"
		}
		data = append(data, []string{
			r.Name,
			role,
			strconv.Itoa(r.Samples),
			strconv.Itoa(r.Missing),
			formatStat(r.Min),
			formatStat(r.Max),
			formatStat(r.Mean),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if missing := MissingRequired(t); len(missing) > 0 {
		pterm.Println()
		for _, name := range missing {
			pterm.Error.Printf("Missing required channel: %s\n", name)
		}
	} else {
		pterm.Success.Println("All required channels present")
	}

	lambdas := 0
	for _, r := range reports {
		if r.Lambda {
			lambdas++
		}
	}
	if lambdas == 0 {
		pterm.Error.Println("No lambda channel detected")
	} else {
		pterm.Info.Printf("Lambda channels detected: %d\n", lambdas)
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
