package swap

import "math"

// SlippagePolicy turns a quoted output into the minimum acceptable output.
// The requested tolerance is widened by ExtraPct to absorb pool drift
// between quote and execution, and never drops below FloorPct.
type SlippagePolicy struct {
	ExtraPct float64
	FloorPct float64
}

// MinOutput computes the floor of quote*(1 - tolerance/100), clamped to at
// least 1 micro unit so the contract never sees a zero minimum.
func (p SlippagePolicy) MinOutput(quote uint64, requestedPct float64) uint64 {
	pct := math.Max(p.FloorPct, requestedPct+p.ExtraPct)
	keep := math.Max(0, 1-pct/100)
	minOut := math.Floor(float64(quote) * keep)
	if minOut < 1 {
		return 1
	}
	return uint64(minOut)
}
