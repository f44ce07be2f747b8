package engine

import (
	"math"
	"strconv"
)

// Weight is an optional score. The zero value is unset.
//
// Comparisons involving an unset weight are always false in both directions,
// so an unevaluated node can neither win nor lose a comparison.
type Weight struct {
	v  float64
	ok bool
}

// Unset is the weight of a node that has not been evaluated.
var Unset = Weight{}

// Known wraps a score.
func Known(v float64) Weight {
	return Weight{v: v, ok: true}
}

// Infinite returns +Inf or -Inf.
func Infinite(sign int) Weight {
	return Known(math.Inf(sign))
}

// IsSet returns true if the weight carries a score.
func (w Weight) IsSet() bool {
	return w.ok
}

// Value returns the score and whether it is set.
func (w Weight) Value() (float64, bool) {
	return w.v, w.ok
}

// Neg negates a set weight. Unset stays unset.
func (w Weight) Neg() Weight {
	if !w.ok {
		return Unset
	}
	return Known(-w.v)
}

// Greater reports whether both weights are set and w > o.
func (w Weight) Greater(o Weight) bool {
	return w.ok && o.ok && w.v > o.v
}

// Less reports whether both weights are set and w < o.
func (w Weight) Less(o Weight) bool {
	return w.ok && o.ok && w.v < o.v
}

// Negative reports whether the weight is set and below zero.
func (w Weight) Negative() bool {
	return w.ok && w.v < 0
}

// Max returns the greater of two weights, ignoring unset ones.
func (w Weight) Max(o Weight) Weight {
	switch {
	case !w.ok:
		return o
	case !o.ok:
		return w
	case o.v > w.v:
		return o
	default:
		return w
	}
}

// Centipawns scales the score by 100 for protocol output, clamping infinities.
func (w Weight) Centipawns() int {
	const limit = 100000
	switch {
	case !w.ok:
		return 0
	case math.IsInf(w.v, 1):
		return limit
	case math.IsInf(w.v, -1):
		return -limit
	default:
		return int(math.Round(w.v * 100))
	}
}

// String returns the score, "inf", "-inf" or "unset".
func (w Weight) String() string {
	if !w.ok {
		return "unset"
	}
	switch {
	case math.IsInf(w.v, 1):
		return "inf"
	case math.IsInf(w.v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(w.v, 'g', -1, 64)
}
