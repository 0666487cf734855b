package analyzer

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/models"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
)

const ambient = 25.0

// buildTable assembles a telemetry table from a column list and row values.
func buildTable(columns []string, data ...[]float64) *telemetry.Table {
	t := &telemetry.Table{Columns: columns}
	for _, values := range data {
		row := make(telemetry.Row, len(columns))
		raw := make(map[string]string, len(columns))
		for i, name := range columns {
			row[name] = values[i]
			if math.IsNaN(values[i]) {
				raw[name] = "ERR"
			} else {
				raw[name] = strconv.FormatFloat(values[i], 'g', -1, 64)
			}
		}
		t.Rows = append(t.Rows, row)
		t.Raw = append(t.Raw, raw)
	}
	return t
}

// stdColumns is the usual log layout: time, throttle, fuel, temps, one lambda.
var stdColumns = []string{
	telemetry.ChannelTime,
	telemetry.ChannelTPS,
	telemetry.ChannelFuel,
	telemetry.ChannelIAT,
	telemetry.ChannelECT,
	"Lambda 1",
}

// row builds a sample in stdColumns order.
func row(time, tps, fuel, iat, ect, lambda float64) []float64 {
	return []float64{time, tps, fuel, iat, ect, lambda}
}

func TestCleanRunPasses(t *testing.T) {
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.85),
		row(0.2, 100, 340, ambient, ambient, 0.85),
		row(0.4, 100, 340, ambient, ambient, 0.85),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, VerdictPass, res.Verdict)
	assert.Equal(t, -1, res.CheatIndex)
	for i, f := range res.Frames {
		assert.False(t, f.Out, "row %d should not be in violation", i)
		assert.True(t, f.Qualified, "row %d should be qualified", i)
	}
}

func TestSustainedLeanConditionConfirmedAfterDelay(t *testing.T) {
	// Lambda far lean at full throttle for five rows 0.2 s apart. The
	// accumulator reaches 0.6 s on the fourth row (t=0.6).
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.5),
		row(0.2, 100, 340, ambient, ambient, 0.5),
		row(0.4, 100, 340, ambient, ambient, 0.5),
		row(0.6, 100, 340, ambient, ambient, 0.5),
		row(0.8, 100, 340, ambient, ambient, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "CHEAT – Début à 0.60 s", res.Verdict)
	assert.Equal(t, 3, res.CheatIndex)

	wantStart := []bool{false, false, false, true, true}
	for i, f := range res.Frames {
		assert.True(t, f.Out, "row %d", i)
		assert.Equal(t, wantStart[i], f.CheatStart, "row %d", i)
	}
}

func TestLargeGapConfirmsOnFirstViolatingRow(t *testing.T) {
	// A single violating row whose time delta alone exceeds the delay is
	// confirmed immediately: the debounce measures log time, not row count.
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.85),
		row(1.0, 100, 340, ambient, ambient, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 1, res.CheatIndex)
	assert.True(t, res.Frames[1].Out)
	assert.True(t, res.Frames[1].CheatStart)
	assert.Equal(t, "CHEAT – Début à 1.00 s", res.Verdict)
}

func TestLowThrottleNeverViolates(t *testing.T) {
	// Out-of-band lambda at 50% throttle is normal operation (idle, coast).
	tab := buildTable(stdColumns,
		row(0.0, 50, 340, ambient, ambient, 0.5),
		row(1.0, 50, 340, ambient, ambient, 0.5),
		row(2.0, 50, 100, 90, 90, 1.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, VerdictPass, res.Verdict)
	for i, f := range res.Frames {
		assert.False(t, f.Out, "row %d", i)
	}
}

func TestMissingColumnsReportedInPriorityOrder(t *testing.T) {
	full := stdColumns

	// Dropping columns one at a time must surface them in the fixed order
	// TPS, fuel pressure, IAT, ECT, time.
	for _, want := range telemetry.RequiredChannels {
		var columns []string
		for _, c := range full {
			if c != want {
				columns = append(columns, c)
			}
		}
		tab := buildTable(columns)

		_, err := Analyze(tab, ambient, models.DefaultConfig())
		var missing *MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, want, missing.Column)
	}

	// Several absent at once: the earliest in the order wins.
	tab := buildTable([]string{telemetry.ChannelTime, "Lambda 1"})
	_, err := Analyze(tab, ambient, models.DefaultConfig())
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, telemetry.ChannelTPS, missing.Column)
}

func TestNoLambdaChannel(t *testing.T) {
	tab := buildTable(telemetry.RequiredChannels)
	_, err := Analyze(tab, ambient, models.DefaultConfig())
	require.ErrorIs(t, err, ErrNoLambdaChannel)
}

func TestLambdaChannelMatchIsCaseInsensitiveSubstring(t *testing.T) {
	// RequiredChannels order: TPS, fuel, IAT, ECT, time.
	columns := append(append([]string{}, telemetry.RequiredChannels...), "AFR LAMBDA Bank 2")
	tab := buildTable(columns, []float64{100, 340, ambient, ambient, 0, 0.85})

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"AFR LAMBDA Bank 2"}, res.LambdaChannels)
	assert.InDelta(t, 0.85, res.Frames[0].Lambda, 1e-9)
}

func TestMultipleLambdaChannelsAveraged(t *testing.T) {
	columns := append(append([]string{}, telemetry.RequiredChannels...), "Lambda 1", "Lambda 2")
	tab := buildTable(columns,
		[]float64{100, 340, ambient, ambient, 0.0, 0.80, 0.90},
		[]float64{100, 340, ambient, ambient, 0.2, 0.70, math.NaN()},
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	// Row 0: mean of 0.80 and 0.90 is in band.
	assert.InDelta(t, 0.85, res.Frames[0].Lambda, 1e-9)
	assert.True(t, res.Frames[0].LambdaOK)

	// Row 1: the NaN probe is skipped, leaving 0.70 which is out of band.
	assert.InDelta(t, 0.70, res.Frames[1].Lambda, 1e-9)
	assert.False(t, res.Frames[1].LambdaOK)
}

func TestNaNCellsFailTheirRuleWithoutError(t *testing.T) {
	tab := buildTable(stdColumns,
		// NaN lambda at full throttle: lambda rule fails, row is a violation.
		row(0.0, 100, 340, ambient, ambient, math.NaN()),
		// NaN throttle: no evidence of high throttle, no violation.
		row(0.2, math.NaN(), 100, 90, 90, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.False(t, res.Frames[0].LambdaOK)
	assert.True(t, res.Frames[0].Out)
	assert.False(t, res.Frames[1].TPSOK)
	assert.False(t, res.Frames[1].Out)
}

func TestInclusiveBoundaries(t *testing.T) {
	cfg := models.DefaultConfig()
	tab := buildTable(stdColumns,
		row(0.0, cfg.TPSCheatMin, cfg.FuelMin, ambient+cfg.AmbientOffset, ambient+cfg.AmbientOffset, cfg.LambdaMin),
		row(0.2, cfg.TPSCheatMin, cfg.FuelMax, ambient+cfg.AmbientOffset, ambient+cfg.AmbientOffset, cfg.LambdaMax),
	)

	res, err := Analyze(tab, ambient, cfg)
	require.NoError(t, err)

	for i, f := range res.Frames {
		assert.True(t, f.TPSOK, "row %d", i)
		assert.True(t, f.LambdaOK, "row %d", i)
		assert.True(t, f.FuelOK, "row %d", i)
		assert.True(t, f.IATOK, "row %d", i)
		assert.True(t, f.ECTOK, "row %d", i)
		assert.False(t, f.Out, "row %d", i)
	}
}

func TestAccumulatorResetsOnCleanRow(t *testing.T) {
	// Violation for 0.4 s, one clean row, then violation again. The clean
	// row must zero the accumulator: the second burst starts from scratch.
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.5),
		row(0.3, 100, 340, ambient, ambient, 0.5),
		row(0.4, 100, 340, ambient, ambient, 0.85), // clean, resets
		row(0.7, 100, 340, ambient, ambient, 0.5),
		row(1.0, 100, 340, ambient, ambient, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	// Second burst: acc = 0.3 at row 3, 0.6 at row 4.
	wantStart := []bool{false, false, false, false, true}
	for i, f := range res.Frames {
		assert.Equal(t, wantStart[i], f.CheatStart, "row %d", i)
	}
	assert.Equal(t, "CHEAT – Début à 1.00 s", res.Verdict)
}

func TestNonMonotonicTimeClampsToZero(t *testing.T) {
	// A timestamp glitch going backwards must not accumulate negative time.
	tab := buildTable(stdColumns,
		row(1.0, 100, 340, ambient, ambient, 0.5),
		row(0.5, 100, 340, ambient, ambient, 0.5),
		row(0.5, 100, 340, ambient, ambient, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	for i, f := range res.Frames {
		assert.Equal(t, 0.0, f.Dt, "row %d", i)
		assert.False(t, f.CheatStart, "row %d", i)
	}
	assert.Equal(t, VerdictPass, res.Verdict)
}

func TestVerdictUsesFirstConfirmedRow(t *testing.T) {
	// Two confirmed episodes; the verdict must carry the first one.
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.85),
		row(1.0, 100, 340, ambient, ambient, 0.5), // confirmed (dt=1.0)
		row(1.1, 100, 340, ambient, ambient, 0.85),
		row(3.0, 100, 340, ambient, ambient, 0.5), // confirmed again
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, res.CheatIndex)
	assert.Equal(t, "CHEAT – Début à 1.00 s", res.Verdict)

	got, ok := res.CheatTime()
	require.True(t, ok)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestQualifiedWindowCoversConfirmedRowAndNext(t *testing.T) {
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.85),
		row(1.0, 100, 340, ambient, ambient, 0.5), // confirmed
		row(1.1, 100, 340, ambient, ambient, 0.85),
		row(1.2, 100, 340, ambient, ambient, 0.85),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	want := []bool{true, false, false, true}
	for i, f := range res.Frames {
		assert.Equal(t, want[i], f.Qualified, "row %d", i)
	}
}

func TestStructuralInvariants(t *testing.T) {
	// Mixed run exercising every flag combination.
	tab := buildTable(stdColumns,
		row(0.0, 50, 340, ambient, ambient, 0.5),
		row(0.2, 100, 340, ambient, ambient, 0.5),
		row(0.4, 100, 340, ambient, ambient, 0.85),
		row(1.4, 100, 100, ambient, ambient, 0.85),
		row(1.5, 98, 340, 90, ambient, 0.85),
		row(3.0, 97, 340, ambient, 90, 0.85),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	require.Len(t, res.Frames, tab.Len())
	for i, f := range res.Frames {
		if f.Out {
			assert.True(t, f.TPSOK, "row %d: Out requires high throttle", i)
		}
		if f.CheatStart {
			assert.True(t, f.Out, "row %d: confirmed requires Out", i)
		}
	}
}

func TestAnalyzeIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.5),
		row(1.0, 100, 340, ambient, ambient, 0.5),
	)

	before := make([]telemetry.Row, len(tab.Rows))
	for i, r := range tab.Rows {
		cp := make(telemetry.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		before[i] = cp
	}

	first, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)
	second, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, tab.Rows)
	assert.Equal(t, len(stdColumns), len(tab.Columns))
}

func TestEmptyTablePasses(t *testing.T) {
	tab := buildTable(stdColumns)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	assert.Empty(t, res.Frames)
	assert.Equal(t, VerdictPass, res.Verdict)
	assert.Equal(t, -1, res.CheatIndex)
}

func TestSingleRowCannotConfirm(t *testing.T) {
	// First row has dt 0, so even a violating row cannot reach the delay.
	tab := buildTable(stdColumns,
		row(0.0, 100, 340, ambient, ambient, 0.5),
	)

	res, err := Analyze(tab, ambient, models.DefaultConfig())
	require.NoError(t, err)

	require.Len(t, res.Frames, 1)
	assert.True(t, res.Frames[0].Out)
	assert.False(t, res.Frames[0].CheatStart)
	assert.Equal(t, VerdictPass, res.Verdict)
}
