package geometry

import (
	"fmt"
	"math"
)

// Spatial hash multipliers from "Optimized Spatial Hashing for Collision
// Detection of Deformable Objects" (Teschner et al.).
const (
	hashPrimeX = 73_856_093
	hashPrimeY = 19_349_663
)

// Point is an immutable 2D coordinate. Methods take and return values;
// AddAssign and ScaleAssign are the only mutating operations.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a new point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Origin returns the point at (0, 0).
func Origin() Point {
	return Point{}
}

// Distance returns the Euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

func (p *Point) AddAssign(other Point) {
	p.X += other.X
	p.Y += other.Y
}

func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p *Point) ScaleAssign(k float64) {
	p.X *= k
	p.Y *= k
}

// Equal compares coordinates exactly. Points that went through different
// arithmetic may differ in the last bit; use ApproxEqual for those.
func (p Point) Equal(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// ApproxEqual reports whether both coordinates are within eps of other's.
func (p Point) ApproxEqual(other Point, eps float64) bool {
	return math.Abs(p.X-other.X) <= eps && math.Abs(p.Y-other.Y) <= eps
}

// Hash returns a spatial bucketing hash of the coordinates. It is not
// injective: nearby points collide once their scaled projections floor
// to the same integers.
func (p Point) Hash() uint64 {
	return uint64(floorInt(p.X*hashPrimeX)) ^ uint64(floorInt(p.Y*hashPrimeY))
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// floorInt rounds v down, saturating at the int64 range so the result
// does not depend on the platform's out-of-range conversion rules.
func floorInt(v float64) int64 {
	v = math.Floor(v)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(v)
	}
}
