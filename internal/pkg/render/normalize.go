package render

import "math"

// Normalize maps a raw reading through the {floor, ceiling} domain to a
// clamped 0-100 percentage. A nil or non-finite reading stays nil so
// consumers can show an explicit unknown state instead of a fake zero.
// A degenerate domain (ceiling <= floor) produces 0; the create path
// rejects such records before they reach the backend, but wire records
// are taken as-is.
func Normalize(raw *float64, floor, ceiling float64) *float64 {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return nil
	}
	var pct float64
	if ceiling > floor {
		pct = (*raw - floor) / (ceiling - floor) * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}
