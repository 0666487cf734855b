package analyzer

import "github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/models"

// evaluateRules fills the per-row rule flags and the instantaneous
// violation flag. All range checks are inclusive at the boundaries.
//
// NaN compares false against everything, so a missing or garbled sample
// fails its rule instead of passing silently. A NaN throttle therefore
// keeps Out false for that row: with no evidence of high throttle there is
// no violation to report.
func evaluateRules(f *Frame, ambientTemp float64, cfg models.Config) {
	maxTemp := ambientTemp + cfg.AmbientOffset

	f.TPSOK = f.TPS >= cfg.TPSCheatMin
	f.LambdaOK = f.Lambda >= cfg.LambdaMin && f.Lambda <= cfg.LambdaMax
	f.FuelOK = f.FuelPressure >= cfg.FuelMin && f.FuelPressure <= cfg.FuelMax
	f.IATOK = f.IAT <= maxTemp
	f.ECTOK = f.ECT <= maxTemp

	// A cheat requires high throttle AND some other parameter out of band.
	// Off-throttle excursions (idle, coast-down) are normal operation.
	f.Out = f.TPSOK && !(f.LambdaOK && f.FuelOK && f.IATOK && f.ECTOK)
}
