package universe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"prospero-server/internal/namegen"
	apperrors "prospero-server/internal/shared/errors"
	"prospero-server/internal/spatial"
	"prospero-server/internal/star"
	"prospero-server/internal/system"
)

const (
	starsStreamLabel = "stars"
	maxPrealloc      = 1 << 20
)

// NameSource hands out unique system names from a random stream.
// *namegen.Synthesizer satisfies it.
type NameSource interface {
	Generate(rng *rand.Rand) (string, error)
}

type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger.With("component", "generator")}
}

// Generate runs the pipeline: place NumberOfSystems points, name each one
// in order from the same stream, store them, then optionally attach one
// primary star per system from a separate stream.
//
// Name exhaustion aborts the run and no partial world is returned.
func (g *Generator) Generate(ctx context.Context, params Params, names NameSource) (*World, error) {
	logger := g.logger.With("operation", "Generate", "map_seed", params.MapSeed)

	if err := params.Validate(); err != nil {
		return nil, apperrors.WrapValidation("invalid generation parameters", err)
	}

	start := time.Now()
	rng := newPrimaryRNG(params.MapSeed)

	sampler, err := spatial.NewSampler(rng, params.SystemSpread)
	if err != nil {
		return nil, apperrors.WrapValidation("invalid generation parameters", err)
	}
	locations := sampler.Sample(params.NumberOfSystems)

	world := NewWorld(int(min(params.NumberOfSystems, maxPrealloc)))
	for i, location := range locations {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		name, err := names.Generate(rng)
		if err != nil {
			logger.Warn("Naming failed", "system", i, "error", err)
			if errors.Is(err, namegen.ErrExhausted) {
				return nil, apperrors.WrapGeneration(fmt.Sprintf("failed to name system %d", i), err)
			}
			return nil, fmt.Errorf("failed to name system %d: %w", i, err)
		}
		world.Systems.Insert(system.New(location, name))
	}

	if params.StarsEnabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		starRNG := NewDeterministicRNG(params.MapSeed, starsStreamLabel)
		for idx := range world.Systems.All() {
			world.Stars.Insert(star.Generate(starRNG, idx))
		}
	}

	logger.Info("Generated systems",
		"systems", world.Systems.Len(),
		"stars", world.Stars.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return world, nil
}
