package star

import (
	"prospero-server/internal/entity"
	"prospero-server/internal/system"
)

// SpectralClass is the Harvard spectral classification of a star.
type SpectralClass string

const (
	SpectralClassO SpectralClass = "O"
	SpectralClassB SpectralClass = "B"
	SpectralClassA SpectralClass = "A"
	SpectralClassF SpectralClass = "F"
	SpectralClassG SpectralClass = "G"
	SpectralClassK SpectralClass = "K"
	SpectralClassM SpectralClass = "M"
)

// SpectralClasses lists the classes from hottest to coolest.
var SpectralClasses = []SpectralClass{
	SpectralClassO,
	SpectralClassB,
	SpectralClassA,
	SpectralClassF,
	SpectralClassG,
	SpectralClassK,
	SpectralClassM,
}

func (c SpectralClass) Valid() bool {
	_, ok := classProfiles[c]
	return ok
}

// Star is the primary star of a system. Mass and luminosity are in solar
// units.
type Star struct {
	System        system.Index  `json:"system"`
	Mass          float64       `json:"mass"`
	Luminosity    float64       `json:"luminosity"`
	SpectralClass SpectralClass `json:"spectral_class"`
}

// Index addresses a Star in a world's star arena.
type Index = entity.Index[Star]

// Arena stores the stars of one world.
type Arena = entity.Arena[Star]
