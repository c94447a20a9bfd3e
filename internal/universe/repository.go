package universe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"prospero-server/internal/entity"
	"prospero-server/internal/geometry"
	"prospero-server/internal/shared/database"
	"prospero-server/internal/star"
	"prospero-server/internal/system"
)

// Store persists generated worlds.
type Store interface {
	Save(ctx context.Context, key string, snapshot *Snapshot) (int, error)
	FindByKey(ctx context.Context, key string) (*Snapshot, bool, error)
}

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing world repository")
	return &Repository{
		db:     db,
		logger: logger.With("component", "world_repository"),
	}
}

type systemRow struct {
	Index int     `json:"idx"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type starRow struct {
	Index         int     `json:"idx"`
	System        int     `json:"system_idx"`
	Mass          float64 `json:"mass"`
	Luminosity    float64 `json:"luminosity"`
	SpectralClass string  `json:"spectral_class"`
}

func systemRows(systems *system.Arena) []systemRow {
	rows := make([]systemRow, 0, systems.Len())
	for idx, s := range systems.All() {
		rows = append(rows, systemRow{Index: idx.Int(), Name: s.Name, X: s.Location.X, Y: s.Location.Y})
	}
	return rows
}

func starRows(stars *star.Arena) []starRow {
	rows := make([]starRow, 0, stars.Len())
	for idx, s := range stars.All() {
		rows = append(rows, starRow{
			Index:         idx.Int(),
			System:        s.System.Int(),
			Mass:          s.Mass,
			Luminosity:    s.Luminosity,
			SpectralClass: string(s.SpectralClass),
		})
	}
	return rows
}

// Save replaces any world stored under key with snapshot and returns the
// new row id.
func (r *Repository) Save(ctx context.Context, key string, snapshot *Snapshot) (int, error) {
	logger := r.logger.With("operation", "Save", "key", key)

	spread, err := json.Marshal(snapshot.Summary.Spread)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal spread summary: %w", err)
	}

	var worldID int
	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM worlds WHERE world_key = $1`, key); err != nil {
			return fmt.Errorf("failed to delete previous world: %w", err)
		}

		summary := snapshot.Summary
		err := tx.QueryRowContext(ctx, `
			INSERT INTO worlds (world_key, map_seed, number_of_systems, system_spread, stars_enabled,
				corpus_source, corpus_digest, spread, generated_at, elapsed_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			key,
			int64(summary.Params.MapSeed),
			int64(summary.Params.NumberOfSystems),
			summary.Params.SystemSpread,
			summary.Params.StarsEnabled,
			summary.CorpusSource,
			summary.CorpusDigest,
			string(spread),
			summary.GeneratedAt,
			summary.ElapsedMS,
		).Scan(&worldID)
		if err != nil {
			return fmt.Errorf("failed to insert world: %w", err)
		}

		if err := r.insertSystems(ctx, tx, worldID, systemRows(snapshot.Systems)); err != nil {
			return err
		}
		return r.insertStars(ctx, tx, worldID, starRows(snapshot.Stars))
	})
	if err != nil {
		logger.Error("Failed to save world", "error", err)
		return 0, err
	}

	logger.Info("World saved", "world_id", worldID, "systems", snapshot.Systems.Len(), "stars", snapshot.Stars.Len())
	return worldID, nil
}

func (r *Repository) insertSystems(ctx context.Context, exec database.Executor, worldID int, rows []systemRow) error {
	if len(rows) == 0 {
		return nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal systems: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO world_systems (world_id, idx, name, x, y)
		SELECT
			$1,
			(data->>'idx')::integer,
			data->>'name',
			(data->>'x')::double precision,
			(data->>'y')::double precision
		FROM json_array_elements($2::json) AS data`,
		worldID, string(data))
	if err != nil {
		return fmt.Errorf("failed to batch insert systems: %w", err)
	}
	return nil
}

func (r *Repository) insertStars(ctx context.Context, exec database.Executor, worldID int, rows []starRow) error {
	if len(rows) == 0 {
		return nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal stars: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO world_stars (world_id, idx, system_idx, mass, luminosity, spectral_class)
		SELECT
			$1,
			(data->>'idx')::integer,
			(data->>'system_idx')::integer,
			(data->>'mass')::double precision,
			(data->>'luminosity')::double precision,
			data->>'spectral_class'
		FROM json_array_elements($2::json) AS data`,
		worldID, string(data))
	if err != nil {
		return fmt.Errorf("failed to batch insert stars: %w", err)
	}
	return nil
}

// FindByKey loads the world stored under key. Rows are read back in index
// order so the rebuilt arenas hand out the same indices.
func (r *Repository) FindByKey(ctx context.Context, key string) (*Snapshot, bool, error) {
	logger := r.logger.With("operation", "FindByKey", "key", key)

	var (
		worldID   int
		seed      int64
		count     int64
		spreadRaw []byte
		snapshot  = &Snapshot{}
	)
	summary := &snapshot.Summary

	err := r.db.QueryRowContext(ctx, `
		SELECT id, map_seed, number_of_systems, system_spread, stars_enabled,
			corpus_source, corpus_digest, spread, generated_at, elapsed_ms
		FROM worlds
		WHERE world_key = $1`, key).Scan(
		&worldID,
		&seed,
		&count,
		&summary.Params.SystemSpread,
		&summary.Params.StarsEnabled,
		&summary.CorpusSource,
		&summary.CorpusDigest,
		&spreadRaw,
		&summary.GeneratedAt,
		&summary.ElapsedMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to load world", "error", err)
		return nil, false, fmt.Errorf("failed to load world: %w", err)
	}

	summary.Params.MapSeed = uint32(seed)
	summary.Params.NumberOfSystems = uint64(count)
	if err := json.Unmarshal(spreadRaw, &summary.Spread); err != nil {
		return nil, false, fmt.Errorf("failed to decode spread summary: %w", err)
	}

	systems, err := r.loadSystems(ctx, worldID, int(count))
	if err != nil {
		logger.Error("Failed to load systems", "world_id", worldID, "error", err)
		return nil, false, err
	}
	stars, err := r.loadStars(ctx, worldID)
	if err != nil {
		logger.Error("Failed to load stars", "world_id", worldID, "error", err)
		return nil, false, err
	}

	snapshot.Systems = systems
	snapshot.Stars = stars
	summary.Systems = systems.Len()
	summary.Stars = stars.Len()

	logger.Debug("World loaded", "world_id", worldID, "systems", summary.Systems)
	return snapshot, true, nil
}

func (r *Repository) loadSystems(ctx context.Context, worldID, capacity int) (*system.Arena, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, x, y FROM world_systems WHERE world_id = $1 ORDER BY idx`, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query systems: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err)
		}
	}()

	systems := entity.NewArena[system.System](min(capacity, maxPrealloc))
	for rows.Next() {
		var (
			name string
			x, y float64
		)
		if err := rows.Scan(&name, &x, &y); err != nil {
			return nil, fmt.Errorf("failed to scan system: %w", err)
		}
		systems.Insert(system.New(geometry.NewPoint(x, y), name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating systems: %w", err)
	}
	return systems, nil
}

func (r *Repository) loadStars(ctx context.Context, worldID int) (*star.Arena, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT system_idx, mass, luminosity, spectral_class FROM world_stars WHERE world_id = $1 ORDER BY idx`, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stars: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err)
		}
	}()

	stars := entity.NewArena[star.Star](0)
	for rows.Next() {
		var (
			owner int
			s     star.Star
			class string
		)
		if err := rows.Scan(&owner, &s.Mass, &s.Luminosity, &class); err != nil {
			return nil, fmt.Errorf("failed to scan star: %w", err)
		}
		s.System = entity.NewIndex[system.System](owner)
		s.SpectralClass = star.SpectralClass(class)
		stars.Insert(s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stars: %w", err)
	}
	return stars, nil
}
