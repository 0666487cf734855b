package analyzer

import "math"

// debounce runs the anti-spot filter over the frames in input order.
//
// A scalar accumulator tracks how long the run has been continuously in
// violation. It grows by the inter-row time delta while Out holds and
// resets to zero the moment it does not; a row is flagged as the start of
// a confirmed episode once the accumulated time reaches delaySec.
// Accumulating log time instead of counting rows keeps the threshold
// meaningful under irregular sampling rates: a single Out row preceded by
// a gap of delaySec or more confirms immediately.
func debounce(frames []Frame, delaySec float64) {
	acc := 0.0
	prevTime := math.NaN()

	for i := range frames {
		f := &frames[i]

		dt := f.Time - prevTime
		if math.IsNaN(dt) || dt < 0 {
			dt = 0
		}
		f.Dt = dt
		prevTime = f.Time

		if f.Out {
			acc += dt
			f.CheatStart = acc >= delaySec
		} else {
			acc = 0
			f.CheatStart = false
		}
	}
}

// firstCheatIndex returns the index of the earliest confirmed row, -1 if none.
func firstCheatIndex(frames []Frame) int {
	for i := range frames {
		if frames[i].CheatStart {
			return i
		}
	}
	return -1
}

// qualify clears the qualified flag on each confirmed row and the row
// immediately after it, a trailing two-row window over CheatStart.
func qualify(frames []Frame) {
	for i := range frames {
		disqualified := frames[i].CheatStart
		if i > 0 && frames[i-1].CheatStart {
			disqualified = true
		}
		frames[i].Qualified = !disqualified
	}
}
