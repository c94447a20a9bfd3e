package spatial

import (
	"fmt"
	"math"
	"math/rand"

	"prospero-server/internal/geometry"
)

// Sampler draws system coordinates from a symmetric bivariate normal
// distribution centred on the origin. Both axes share the same standard
// deviation and are drawn independently.
type Sampler struct {
	rng    *rand.Rand
	spread float64
}

// NewSampler returns a sampler reading from rng. spread is the standard
// deviation on each axis and must be finite and non-negative.
func NewSampler(rng *rand.Rand, spread float64) (*Sampler, error) {
	if rng == nil {
		return nil, fmt.Errorf("spatial: nil random stream")
	}
	if math.IsNaN(spread) || math.IsInf(spread, 0) || spread < 0 {
		return nil, fmt.Errorf("spatial: invalid spread %v", spread)
	}
	return &Sampler{rng: rng, spread: spread}, nil
}

// Next draws one point, x before y.
func (s *Sampler) Next() geometry.Point {
	x := s.rng.NormFloat64() * s.spread
	y := s.rng.NormFloat64() * s.spread
	return geometry.NewPoint(x, y)
}

// Sample draws exactly n points in draw order. The result is a pure
// function of the stream state and n.
func (s *Sampler) Sample(n uint64) []geometry.Point {
	points := make([]geometry.Point, 0, capacityHint(n))
	for i := uint64(0); i < n; i++ {
		points = append(points, s.Next())
	}
	return points
}

// capacityHint bounds the preallocation so a huge requested count does not
// reserve memory before any point is drawn.
func capacityHint(n uint64) int {
	const maxHint = 1 << 20
	if n > maxHint {
		return maxHint
	}
	return int(n)
}
