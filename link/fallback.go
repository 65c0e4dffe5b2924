package link

// Fallback switches RF settings and CCA retry counts based on payload size
// (spec §4.3.5). Grounded on
// original_source/core/wireless/link/link_fallback.c.
type Fallback struct {
	thresholds []uint8
}

// NewFallback builds a fallback table from a sorted, non-decreasing list of
// size thresholds.
func NewFallback(thresholds []uint8) *Fallback {
	return &Fallback{thresholds: append([]uint8(nil), thresholds...)}
}

// GetIndex returns the lowest threshold index i whose threshold[i] still
// accommodates payloadSize — the first ascending tier the payload fits in
// (spec §8's boundary example: thresholds [10,20,30] give index 2 for size
// 25, index 1 for size 15, and report inactive for size 31, which exceeds
// every tier). The second return value reports whether any tier covers the
// payload at all.
func (f *Fallback) GetIndex(payloadSize uint8) (index uint8, active bool) {
	for i, t := range f.thresholds {
		if payloadSize <= t {
			return uint8(i), true
		}
	}
	return 0, false
}
