// Package analyzer classifies boat engine test logs for sustained
// out-of-bounds conditions under high throttle.
//
// The pipeline is a fixed sequence of row-wise passes: lambda channel
// resolution, per-row rule evaluation, a time-accumulating debounce that
// suppresses single-sample spikes, and a final verdict reduction. Each call
// is a pure function of the table, the ambient temperature and the
// thresholds; nothing is retained between calls.
package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/models"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

// VerdictPass is the verdict for a run with no confirmed violation.
const VerdictPass = "PASS"

// Frame is one analyzed sample: the channel values the rules read plus
// every derived flag. Frames come out in input order, one per input row.
type Frame struct {
	Time         float64
	TPS          float64
	FuelPressure float64
	IAT          float64
	ECT          float64

	// Lambda is the mean of all lambda channels present in the row.
	Lambda float64

	TPSOK    bool
	LambdaOK bool
	FuelOK   bool
	IATOK    bool
	ECTOK    bool

	// Out marks an instantaneous violation: high throttle with at least one
	// other sensor out of band.
	Out bool

	// Dt is the elapsed time since the previous row, clamped to zero for the
	// first row and for non-increasing timestamps.
	Dt float64

	// CheatStart marks the row where the accumulated violation time first
	// meets the confirmation delay.
	CheatStart bool

	// Qualified is false on a confirmed row and the row right after it.
	Qualified bool
}

// Result is the output of one classification call.
type Result struct {
	Frames  []Frame
	Verdict string

	// CheatIndex is the index of the first confirmed violation row, -1 if
	// the run is clean.
	CheatIndex int

	// LambdaChannels lists the column names averaged into Lambda.
	LambdaChannels []string
}

// CheatTime returns the elapsed time of the first confirmed violation.
func (r *Result) CheatTime() (float64, bool) {
	if r.CheatIndex < 0 {
		return 0, false
	}
	return r.Frames[r.CheatIndex].Time, true
}

// Analyze classifies a test run against the given thresholds. The table is
// not modified. Returns a MissingColumnError or ErrNoLambdaChannel when the
// table does not carry the required channels; row-level bad values never
// fail the call, they fail the rules for that row instead.
func Analyze(t *telemetry.Table, ambientTemp float64, cfg models.Config) (*Result, error) {
	for _, name := range telemetry.RequiredChannels {
		if !t.HasColumn(name) {
			return nil, &MissingColumnError{Column: name}
		}
	}

	lambdaCols := findLambdaChannels(t.Columns)
	if len(lambdaCols) == 0 {
		return nil, ErrNoLambdaChannel
	}

	res := &Result{
		Frames:         make([]Frame, t.Len()),
		CheatIndex:     -1,
		LambdaChannels: lambdaCols,
	}

	for i := range res.Frames {
		f := &res.Frames[i]
		f.Time = t.Value(i, telemetry.ChannelTime)
		f.TPS = t.Value(i, telemetry.ChannelTPS)
		f.FuelPressure = t.Value(i, telemetry.ChannelFuel)
		f.IAT = t.Value(i, telemetry.ChannelIAT)
		f.ECT = t.Value(i, telemetry.ChannelECT)
		f.Lambda = meanLambda(t.Rows[i], lambdaCols)

		evaluateRules(f, ambientTemp, cfg)
	}

	debounce(res.Frames, cfg.CheatDelaySec)
	qualify(res.Frames)

	res.CheatIndex = firstCheatIndex(res.Frames)
	res.Verdict = verdict(res.Frames, res.CheatIndex)

	return res, nil
}

// findLambdaChannels returns every column whose name contains "lambda",
// case-insensitive. Loggers name these freely (Lambda 1, LAMBDA_B, ...).
func findLambdaChannels(columns []string) []string {
	var matched []string
	for _, name := range columns {
		if strings.Contains(strings.ToLower(name), "lambda") {
			matched = append(matched, name)
		}
	}
	return matched
}

// meanLambda averages the lambda channels of one row, skipping NaN cells.
// All cells NaN yields NaN, which fails the lambda rule downstream.
func meanLambda(row telemetry.Row, lambdaCols []string) float64 {
	var sum float64
	n := 0
	for _, name := range lambdaCols {
		v, ok := row[name]
		if !ok || math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// verdict formats the run verdict from the first confirmed violation row.
func verdict(frames []Frame, cheatIndex int) string {
	if cheatIndex < 0 {
		return VerdictPass
	}
	return fmt.Sprintf("CHEAT – Début à %.2f s", frames[cheatIndex].Time)
}
