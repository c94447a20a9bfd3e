package star

import (
	"math"
	"math/rand"

	"prospero-server/internal/system"
)

type classProfile struct {
	// weight is the relative frequency per 100 000 main-sequence stars
	weight        int
	minMass       float64
	maxMass       float64
	minLuminosity float64
	maxLuminosity float64
}

var classProfiles = map[SpectralClass]classProfile{
	SpectralClassO: {weight: 1, minMass: 16, maxMass: 90, minLuminosity: 30_000, maxLuminosity: 1_000_000},
	SpectralClassB: {weight: 130, minMass: 2.1, maxMass: 16, minLuminosity: 25, maxLuminosity: 30_000},
	SpectralClassA: {weight: 600, minMass: 1.4, maxMass: 2.1, minLuminosity: 5, maxLuminosity: 25},
	SpectralClassF: {weight: 3_000, minMass: 1.04, maxMass: 1.4, minLuminosity: 1.5, maxLuminosity: 5},
	SpectralClassG: {weight: 7_600, minMass: 0.8, maxMass: 1.04, minLuminosity: 0.6, maxLuminosity: 1.5},
	SpectralClassK: {weight: 12_100, minMass: 0.45, maxMass: 0.8, minLuminosity: 0.08, maxLuminosity: 0.6},
	SpectralClassM: {weight: 76_450, minMass: 0.08, maxMass: 0.45, minLuminosity: 0.0001, maxLuminosity: 0.08},
}

// Generate draws a main-sequence primary star for the given system. It
// consumes exactly two values from rng, so a stream shared across systems
// stays aligned with the system order.
func Generate(rng *rand.Rand, owner system.Index) Star {
	class := randomSpectralClass(rng)
	profile := classProfiles[class]

	// Mass and luminosity share the position within the class range so
	// heavier stars in a class are also brighter.
	t := rng.Float64()
	mass := profile.minMass + t*(profile.maxMass-profile.minMass)
	luminosity := profile.minLuminosity * math.Pow(profile.maxLuminosity/profile.minLuminosity, t)

	return Star{
		System:        owner,
		Mass:          mass,
		Luminosity:    luminosity,
		SpectralClass: class,
	}
}

func randomSpectralClass(rng *rand.Rand) SpectralClass {
	totalWeight := 0
	for _, class := range SpectralClasses {
		totalWeight += classProfiles[class].weight
	}

	roll := rng.Intn(totalWeight)
	currentWeight := 0
	for _, class := range SpectralClasses {
		currentWeight += classProfiles[class].weight
		if roll < currentWeight {
			return class
		}
	}

	return SpectralClassM // fallback
}
