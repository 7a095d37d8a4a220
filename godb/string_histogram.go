package godb

import (
	boom "github.com/tylertreat/BoomFilters"
)

// stringHistMaxChars is how many leading characters of a string are
// packed into the base-128 integer StringHistogram delegates to (spec
// §4.6).
const stringHistMaxChars = 4

// packString reduces a string to an integer by treating its first
// stringHistMaxChars bytes as base-128 digits, most significant first.
// Missing trailing characters are treated as 0.
func packString(s string) int64 {
	var v int64
	for i := 0; i < stringHistMaxChars; i++ {
		v *= 128
		if i < len(s) {
			c := s[i]
			if c > 127 {
				c = 127
			}
			v += int64(c)
		}
	}
	return v
}

// StringHistogram estimates selectivity over a string field by packing
// each value's leading characters into an integer and delegating to an
// IntHistogram over the packed [min, max] range (spec §4.6).
//
// A secondary github.com/tylertreat/BoomFilters Count-Min Sketch tracks
// approximate per-value frequencies alongside the histogram: it is not
// on the selectivity path (which must match the deterministic bucket
// arithmetic above), but lets EstimateHeavyHitterCount answer "about how
// many rows equal this exact string" for planner diagnostics without
// keeping every distinct value in memory.
type StringHistogram struct {
	hist *IntHistogram
	cms  *boom.CountMinSketch
}

// NewStringHistogram creates a StringHistogram with the given bucket
// count, covering the packed range [minStr, maxStr].
func NewStringHistogram(buckets int, minStr, maxStr string) (*StringHistogram, error) {
	h, err := NewIntHistogram(buckets, packString(minStr), packString(maxStr))
	if err != nil {
		return nil, err
	}
	return &StringHistogram{
		hist: h,
		cms:  boom.NewCountMinSketch(0.001, 0.999),
	}, nil
}

// AddValue records s in both the packed-integer histogram and the
// heavy-hitter sketch.
func (h *StringHistogram) AddValue(s string) {
	h.hist.AddValue(packString(s))
	h.cms.Add([]byte(s))
}

// EstimateSelectivity packs s the same way and delegates to the
// underlying IntHistogram.
func (h *StringHistogram) EstimateSelectivity(op BoolOp, s string) float64 {
	if op == OpLike {
		return 1.0
	}
	return h.hist.EstimateSelectivity(op, packString(s))
}

// EstimateHeavyHitterCount returns the Count-Min Sketch's approximate
// count of rows with exactly this string value. This is a supplementary
// estimate, independent of the selectivity histogram above.
func (h *StringHistogram) EstimateHeavyHitterCount(s string) uint64 {
	return h.cms.Count([]byte(s))
}
