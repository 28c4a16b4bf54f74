package utils

import "math"

// CreateRankList returns the 1-based ranks of count already sorted items.
// Ranks saturate at the largest uint16.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		ranks[i] = uint16(min(i+1, math.MaxUint16))
	}
	return ranks
}

// ClampLimit returns requested bounded by maxLimit, or fallback when
// requested is not positive. A maxLimit below 1 means no bound.
func ClampLimit(requested, fallback, maxLimit int) int {
	if requested < 1 {
		requested = fallback
	}
	if maxLimit > 0 && requested > maxLimit {
		return maxLimit
	}
	return requested
}
