package universe

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"prospero-server/internal/entity"
	"prospero-server/internal/geometry"
	"prospero-server/internal/shared/config"
	"prospero-server/internal/spatial"
	"prospero-server/internal/star"
	"prospero-server/internal/system"
)

// Params fully determine a generated world together with the training
// corpus and the name model settings.
type Params struct {
	MapSeed         uint32  `json:"map_seed"`
	NumberOfSystems uint64  `json:"number_of_systems"`
	SystemSpread    float64 `json:"system_spread"`
	StarsEnabled    bool    `json:"stars_enabled"`
}

func ParamsFromConfig(cfg config.SimulationConfig) Params {
	return Params{
		MapSeed:         cfg.MapSeed,
		NumberOfSystems: cfg.NumberOfSystems,
		SystemSpread:    cfg.SystemSpread,
		StarsEnabled:    cfg.StarsEnabled,
	}
}

func (p Params) Validate() error {
	if math.IsNaN(p.SystemSpread) || math.IsInf(p.SystemSpread, 0) {
		return fmt.Errorf("system spread must be finite, got %v", p.SystemSpread)
	}
	if p.SystemSpread < 0 {
		return fmt.Errorf("system spread must not be negative, got %v", p.SystemSpread)
	}
	return nil
}

// Key identifies the world produced by p, the name model settings and the
// corpus with the given digest.
func (p Params) Key(corpusDigest string, nameGen config.NameGenConfig) string {
	return fmt.Sprintf("%d:%d:%s:%t:k%d-l%d-t%d:%s",
		p.MapSeed,
		p.NumberOfSystems,
		strconv.FormatFloat(p.SystemSpread, 'g', -1, 64),
		p.StarsEnabled,
		nameGen.Order,
		nameGen.MaxLength,
		nameGen.MaxTries,
		corpusDigest,
	)
}

// World holds the generated entities. It is populated once by the
// generator and read-only afterwards.
type World struct {
	Systems *system.Arena
	Stars   *star.Arena
}

func NewWorld(systems int) *World {
	return &World{
		Systems: entity.NewArena[system.System](systems),
		Stars:   entity.NewArena[star.Star](0),
	}
}

// Locations returns the system coordinates in index order.
func (w *World) Locations() []geometry.Point {
	points := make([]geometry.Point, 0, w.Systems.Len())
	for s := range w.Systems.Values() {
		points = append(points, s.Location)
	}
	return points
}

type Summary struct {
	Params       Params          `json:"params"`
	CorpusSource string          `json:"corpus_source"`
	CorpusDigest string          `json:"corpus_digest"`
	Systems      int             `json:"systems"`
	Stars        int             `json:"stars"`
	Spread       spatial.Summary `json:"spread"`
	GeneratedAt  time.Time       `json:"generated_at"`
	ElapsedMS    int64           `json:"elapsed_ms"`
}

// Snapshot is the serialized form of a generated world.
type Snapshot struct {
	Summary Summary       `json:"summary"`
	Systems *system.Arena `json:"systems"`
	Stars   *star.Arena   `json:"stars"`
}

func (s *Snapshot) World() *World {
	return &World{Systems: s.Systems, Stars: s.Stars}
}
