package telemetry

import "math"

// Required channel names, exactly as the datalogger writes them.
const (
	ChannelTPS  = "TPS (%)"
	ChannelFuel = "Fuel Pressure (psi)"
	ChannelIAT  = "IAT (°C)"
	ChannelECT  = "ECT (°C)"
	ChannelTime = "Time (s)"
)

// RequiredChannels lists the channels every log must carry, in the order
// they are checked. Lambda channels are discovered by name, not listed here.
var RequiredChannels = []string{
	ChannelTPS,
	ChannelFuel,
	ChannelIAT,
	ChannelECT,
	ChannelTime,
}

// Row maps channel name to sample value. Missing or unparsable cells are NaN.
type Row map[string]float64

// Table is an ordered set of samples from one test run. Columns preserves
// the file's column order; Rows preserves sample order. Raw keeps the
// original cell text so exports can reproduce the input byte-for-byte.
type Table struct {
	Columns []string
	Rows    []Row
	Raw     []map[string]string
}

// HasColumn reports whether the table carries the named channel.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Value returns the sample for channel name in row i, NaN if absent.
func (t *Table) Value(i int, name string) float64 {
	if v, ok := t.Rows[i][name]; ok {
		return v
	}
	return math.NaN()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
