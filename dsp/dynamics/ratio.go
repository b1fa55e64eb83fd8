package dynamics

import (
	"fmt"
	"math"
)

// Ratio expresses a compression ratio of n:1. It is either finite or
// infinite; an infinite ratio flattens the transfer curve above the knee
// into a hard ceiling at the threshold. Using an explicit variant avoids
// the sentinel-value-with-tolerance pattern for "infinity" that plagues
// float-typed ratio parameters.
type Ratio struct {
	value    float64
	infinite bool
}

// NewRatio returns a finite n:1 ratio.
func NewRatio(n float64) Ratio {
	return Ratio{value: n}
}

// InfiniteRatio returns the infinite (limiting) ratio.
func InfiniteRatio() Ratio {
	return Ratio{infinite: true}
}

// Infinite reports whether the ratio is infinite.
func (r Ratio) Infinite() bool {
	return r.infinite
}

// Value returns the ratio as a float64, +Inf for the infinite ratio.
func (r Ratio) Value() float64 {
	if r.infinite {
		return math.Inf(1)
	}
	return r.value
}

// String returns the ratio in "n:1" form.
func (r Ratio) String() string {
	if r.infinite {
		return "inf:1"
	}
	return fmt.Sprintf("%g:1", r.value)
}
