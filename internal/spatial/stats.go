package spatial

import (
	"math"

	"prospero-server/internal/geometry"
)

// AxisStats holds the empirical moments of one coordinate axis.
type AxisStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary describes the empirical distribution of a point set.
type Summary struct {
	Count int       `json:"count"`
	X     AxisStats `json:"x"`
	Y     AxisStats `json:"y"`
}

// Summarize computes per-axis mean, population standard deviation and
// bounds. An empty input yields a zero Summary.
func Summarize(points []geometry.Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	return Summary{
		Count: len(points),
		X:     axisStats(xs),
		Y:     axisStats(ys),
	}
}

func axisStats(values []float64) AxisStats {
	stats := AxisStats{Min: math.Inf(1), Max: math.Inf(-1)}

	var sum float64
	for _, v := range values {
		sum += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	stats.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - stats.Mean
		sq += d * d
	}
	stats.StdDev = math.Sqrt(sq / float64(len(values)))

	return stats
}
