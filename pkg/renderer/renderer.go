package renderer

import (
	"github.com/pterm/pterm"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/analyzer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/export"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

// RenderSummary prints the run verdict and headline numbers.
func RenderSummary(t *telemetry.Table, res *analyzer.Result) {
	header := pterm.DefaultHeader.WithFullWidth()
	if res.CheatIndex < 0 {
		header = header.WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
			WithTextStyle(pterm.NewStyle(pterm.FgBlack))
	} else {
		header = header.WithBackgroundStyle(pterm.NewStyle(pterm.BgRed)).
			WithTextStyle(pterm.NewStyle(pterm.FgBlack))
	}
	header.Println(res.Verdict)

	violating := 0
	for i := range res.Frames {
		if res.Frames[i].Out {
			violating++
		}
	}

	pterm.Info.Printf("Rows analyzed: %d\n", t.Len())
	pterm.Info.Printf("Lambda channels: %v\n", res.LambdaChannels)
	pterm.Info.Printf("Rows in instantaneous violation: %d\n", violating)
	if ct, ok := res.CheatTime(); ok {
		pterm.Warning.Printf("First confirmed violation at %.2f s\n", ct)
	}
}

// RenderPreview prints the first limit annotated rows as a table.
// Violating rows are red, confirmed episode starts bold red.
func RenderPreview(t *telemetry.Table, res *analyzer.Result, limit int) {
	records := export.Preview(t, res, limit)
	if len(records) == 0 {
		return
	}

	data := make(pterm.TableData, 0, len(records)+1)
	data = append(data, export.AnnotatedHeader(t))

	for i, record := range records {
		f := &res.Frames[i]
		if f.CheatStart {
			record = colorize(record, pterm.NewStyle(pterm.FgRed, pterm.Bold))
		} else if f.Out {
			record = colorize(record, pterm.NewStyle(pterm.FgRed))
		}
		data = append(data, record)
	}

	pterm.Println()
	pterm.DefaultSection.Println("Annotated samples")
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if t.Len() > len(records) {
		pterm.Info.Printf("Showing first %d of %d rows\n", len(records), t.Len())
	}
}

func colorize(record []string, style *pterm.Style) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = style.Sprint(cell)
	}
	return out
}
