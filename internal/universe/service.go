package universe

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"prospero-server/internal/corpus"
	"prospero-server/internal/entity"
	"prospero-server/internal/namegen"
	"prospero-server/internal/shared/config"
	"prospero-server/internal/shared/errors"
	"prospero-server/internal/spatial"
	"prospero-server/internal/star"
	"prospero-server/internal/system"
)

// Notifier is told about every world that becomes current.
type Notifier interface {
	Broadcast(summary Summary)
}

// Service owns the current world. Reads take a shared lock; generation
// runs without the lock and swaps the finished snapshot in, so readers
// never observe a partial world.
type Service struct {
	generator *Generator
	source    corpus.Source
	nameGen   config.NameGenConfig
	store     Store
	cache     Cache
	notifier  Notifier
	logger    *slog.Logger

	genMu   sync.Mutex
	mu      sync.RWMutex
	current *Snapshot
}

type ServiceOption func(*Service)

// WithStore persists every newly generated world.
func WithStore(store Store) ServiceOption {
	return func(s *Service) { s.store = store }
}

func WithCache(cache Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) { s.notifier = notifier }
}

func NewService(source corpus.Source, nameGen config.NameGenConfig, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		generator: NewGenerator(logger),
		source:    source,
		nameGen:   nameGen,
		cache:     NewMemoryCache(4),
		logger:    logger.With("component", "universe_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate makes the world for params current and returns its snapshot.
// A cached or persisted world with the same parameters, name model
// settings and corpus is reused instead of generating again. On failure the current world is
// left untouched.
func (s *Service) Generate(ctx context.Context, params Params) (*Snapshot, error) {
	logger := s.logger.With("operation", "Generate", "map_seed", params.MapSeed, "systems", params.NumberOfSystems)

	if !s.genMu.TryLock() {
		return nil, errors.Conflictf("world generation already in progress")
	}
	defer s.genMu.Unlock()

	names, err := s.source.Load(ctx)
	if err != nil {
		return nil, errors.WrapExternal(fmt.Sprintf("failed to load corpus from %s", s.source.Name()), err)
	}
	if len(names) == 0 {
		return nil, errors.Validationf("corpus %s is empty", s.source.Name())
	}
	digest := corpus.Digest(names)
	key := params.Key(digest, s.nameGen)

	snapshot, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	if snapshot == nil {
		snapshot, err = s.build(ctx, params, names, digest)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, key, snapshot)
	} else {
		logger.Info("Reusing stored world", "key", key)
	}

	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Broadcast(snapshot.Summary)
	}
	return snapshot, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*Snapshot, error) {
	logger := s.logger.With("operation", "lookup", "key", key)

	if s.cache != nil {
		snapshot, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Cache lookup failed", "error", err)
		} else if ok {
			return snapshot, nil
		}
	}

	if s.store != nil {
		snapshot, ok, err := s.store.FindByKey(ctx, key)
		if err != nil {
			return nil, errors.WrapInternal("failed to load stored world", err)
		}
		if ok {
			if s.cache != nil {
				if err := s.cache.Set(ctx, key, snapshot); err != nil {
					logger.Warn("Failed to cache stored world", "error", err)
				}
			}
			return snapshot, nil
		}
	}

	return nil, nil
}

func (s *Service) build(ctx context.Context, params Params, names []string, digest string) (*Snapshot, error) {
	synth := namegen.NewSynthesizer(
		namegen.WithOrder(s.nameGen.Order),
		namegen.WithMaxLength(s.nameGen.MaxLength),
		namegen.WithMaxTries(s.nameGen.MaxTries),
	)
	synth.TrainAll(names)

	start := time.Now()
	world, err := s.generator.Generate(ctx, params, synth)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	return &Snapshot{
		Summary: Summary{
			Params:       params,
			CorpusSource: s.source.Name(),
			CorpusDigest: digest,
			Systems:      world.Systems.Len(),
			Stars:        world.Stars.Len(),
			Spread:       spatial.Summarize(world.Locations()),
			GeneratedAt:  start.UTC(),
			ElapsedMS:    elapsed.Milliseconds(),
		},
		Systems: world.Systems,
		Stars:   world.Stars,
	}, nil
}

// remember writes a fresh snapshot to the store and cache. Failures are
// logged; the world is still served from memory.
func (s *Service) remember(ctx context.Context, key string, snapshot *Snapshot) {
	logger := s.logger.With("operation", "remember", "key", key)

	if s.store != nil {
		if _, err := s.store.Save(ctx, key, snapshot); err != nil {
			logger.Error("Failed to persist world", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot); err != nil {
			logger.Warn("Failed to cache world", "error", err)
		}
	}
}

// Current returns the current snapshot.
func (s *Service) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, errors.NotFoundf("no world has been generated yet")
	}
	return s.current, nil
}

func (s *Service) Summary() (Summary, error) {
	snapshot, err := s.Current()
	if err != nil {
		return Summary{}, err
	}
	return snapshot.Summary, nil
}

// SystemEntry pairs a system with its index for API responses.
type SystemEntry struct {
	Index  system.Index  `json:"index"`
	System system.System `json:"system"`
	Star   *star.Star    `json:"star,omitempty"`
}

func (s *Service) entry(snapshot *Snapshot, idx system.Index, sys system.System) SystemEntry {
	e := SystemEntry{Index: idx, System: sys}
	// Stars are generated one per system in system order.
	if st, ok := snapshot.Stars.Get(entity.NewIndex[star.Star](idx.Int())); ok {
		e.Star = &st
	}
	return e
}

func (s *Service) System(i int) (SystemEntry, error) {
	snapshot, err := s.Current()
	if err != nil {
		return SystemEntry{}, err
	}
	if i < 0 {
		return SystemEntry{}, errors.Validationf("system index must not be negative, got %d", i)
	}

	idx := entity.NewIndex[system.System](i)
	sys, ok := snapshot.Systems.Get(idx)
	if !ok {
		return SystemEntry{}, errors.NotFoundf("system %d not found", i)
	}
	return s.entry(snapshot, idx, sys), nil
}

// Systems returns up to limit systems starting at offset, and the total.
func (s *Service) Systems(offset, limit int) ([]SystemEntry, int, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 || limit < 0 {
		return nil, 0, errors.Validation("offset and limit must not be negative")
	}

	total := snapshot.Systems.Len()
	entries := make([]SystemEntry, 0, max(0, min(limit, total-offset)))
	for i := offset; i < total && len(entries) < limit; i++ {
		idx := entity.NewIndex[system.System](i)
		sys, _ := snapshot.Systems.Get(idx)
		entries = append(entries, s.entry(snapshot, idx, sys))
	}
	return entries, total, nil
}

// Neighbor is a system with its distance from a reference system.
type Neighbor struct {
	SystemEntry
	Distance float64 `json:"distance"`
}

// Nearest returns the k systems closest to system i, excluding i itself,
// nearest first. Ties are broken by index.
func (s *Service) Nearest(i, k int) ([]Neighbor, error) {
	origin, err := s.System(i)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, errors.Validationf("k must be positive, got %d", k)
	}

	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, snapshot.Systems.Len())
	for idx, sys := range snapshot.Systems.All() {
		if idx == origin.Index {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			SystemEntry: SystemEntry{Index: idx, System: sys},
			Distance:    origin.System.Location.Distance(sys.Location),
		})
	}

	slices.SortFunc(neighbors, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Index.Int(), b.Index.Int())
	})

	neighbors = neighbors[:min(k, len(neighbors))]
	for n := range neighbors {
		neighbors[n].SystemEntry = s.entry(snapshot, neighbors[n].Index, neighbors[n].System)
	}
	return neighbors, nil
}

func (s *Service) Star(i int) (star.Star, error) {
	snapshot, err := s.Current()
	if err != nil {
		return star.Star{}, err
	}
	if i < 0 {
		return star.Star{}, errors.Validationf("star index must not be negative, got %d", i)
	}

	st, ok := snapshot.Stars.Get(entity.NewIndex[star.Star](i))
	if !ok {
		return star.Star{}, errors.NotFoundf("star %d not found", i)
	}
	return st, nil
}
