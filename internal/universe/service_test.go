package universe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"prospero-server/internal/corpus"
	"prospero-server/internal/namegen"
	"prospero-server/internal/shared/config"
	apperrors "prospero-server/internal/shared/errors"
)

type staticSource struct {
	names []string
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context) ([]string, error) {
	return s.names, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []Summary
}

func (n *recordingNotifier) Broadcast(summary Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
}

type memoryStore struct {
	saved map[string]*Snapshot
	saves int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]*Snapshot)}
}

func (m *memoryStore) Save(_ context.Context, key string, snapshot *Snapshot) (int, error) {
	m.saves++
	m.saved[key] = snapshot
	return m.saves, nil
}

func (m *memoryStore) FindByKey(_ context.Context, key string) (*Snapshot, bool, error) {
	snapshot, ok := m.saved[key]
	return snapshot, ok, nil
}

var testNameGen = config.NameGenConfig{Order: 2, MaxLength: 24, MaxTries: 1000}

func newTestService(t *testing.T, names []string, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(staticSource{names: names}, testNameGen, discardLogger(), opts...)
}

func TestServiceBeforeGeneration(t *testing.T) {
	svc := newTestService(t, []string{"Sol"})

	if _, err := svc.Current(); apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Fatalf("expected not found before generation, got %v", err)
	}
	if _, err := svc.System(0); apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Fatalf("expected not found before generation, got %v", err)
	}
}

func TestServiceGenerate(t *testing.T) {
	notifier := &recordingNotifier{}
	store := newMemoryStore()
	svc := newTestService(t, defaultNames(t), WithNotifier(notifier), WithStore(store))
	params := Params{MapSeed: 5, NumberOfSystems: 30, SystemSpread: 100, StarsEnabled: true}

	snapshot, err := svc.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	summary := snapshot.Summary
	if summary.Systems != 30 || summary.Stars != 30 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.Spread.Count != 30 {
		t.Fatalf("expected spread over 30 points, got %d", summary.Spread.Count)
	}
	if summary.CorpusSource != "static" || summary.CorpusDigest == "" {
		t.Fatalf("expected corpus details in summary, got %+v", summary)
	}
	if store.saves != 1 {
		t.Fatalf("expected world to be persisted once, got %d", store.saves)
	}
	if len(notifier.summaries) != 1 || notifier.summaries[0].Params != params {
		t.Fatalf("expected one broadcast, got %+v", notifier.summaries)
	}

	current, err := svc.Current()
	if err != nil || current != snapshot {
		t.Fatalf("expected generated snapshot to be current")
	}

	again, err := svc.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if again != snapshot {
		t.Fatalf("expected cached snapshot to be reused")
	}
	if store.saves != 1 {
		t.Fatalf("cache hit should not persist again, got %d saves", store.saves)
	}
	if len(notifier.summaries) != 2 {
		t.Fatalf("every swap should be broadcast, got %d", len(notifier.summaries))
	}
}

func TestServiceUsesStoredWorld(t *testing.T) {
	names := []string{"Sol"}
	params := Params{MapSeed: 1, NumberOfSystems: 3, SystemSpread: 1}

	// Three systems cannot be named from a single example, so a hit proves
	// the stored world was used instead of generating.
	stored := &Snapshot{Systems: NewWorld(0).Systems, Stars: NewWorld(0).Stars}
	store := newMemoryStore()
	store.saved[params.Key(corpus.Digest(names), testNameGen)] = stored

	svc := newTestService(t, names, WithStore(store))
	snapshot, err := svc.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if snapshot != stored {
		t.Fatalf("expected stored snapshot")
	}
}

func TestServiceNameModelChangeRegenerates(t *testing.T) {
	names := defaultNames(t)
	params := Params{MapSeed: 42, NumberOfSystems: 64, SystemSpread: 100}
	store := newMemoryStore()

	first := NewService(staticSource{names: names}, testNameGen, discardLogger(), WithStore(store))
	if _, err := first.Generate(context.Background(), params); err != nil {
		t.Fatalf("generate with order 2: %v", err)
	}

	orderThree := config.NameGenConfig{Order: 3, MaxLength: 24, MaxTries: 1000}
	second := NewService(staticSource{names: names}, orderThree, discardLogger(), WithStore(store))
	snapshot, err := second.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("generate with order 3: %v", err)
	}
	if store.saves != 2 {
		t.Fatalf("expected a fresh world to be persisted, got %d saves", store.saves)
	}

	synth := namegen.NewSynthesizer(namegen.WithOrder(3), namegen.WithMaxLength(24), namegen.WithMaxTries(1000))
	synth.TrainAll(names)
	want, err := NewGenerator(discardLogger()).Generate(context.Background(), params, synth)
	if err != nil {
		t.Fatalf("direct generate: %v", err)
	}

	for idx, sys := range want.Systems.All() {
		got, ok := snapshot.Systems.Get(idx)
		if !ok {
			t.Fatalf("missing system %v", idx)
		}
		if got.Name != sys.Name {
			t.Fatalf("system %v: expected order-3 name %q, got %q", idx, sys.Name, got.Name)
		}
	}
}

func TestServiceRejectsConcurrentGeneration(t *testing.T) {
	svc := newTestService(t, defaultNames(t))

	svc.genMu.Lock()
	_, err := svc.Generate(context.Background(), Params{MapSeed: 1, NumberOfSystems: 1, SystemSpread: 1})
	svc.genMu.Unlock()

	if apperrors.GetType(err) != apperrors.ErrorTypeConflict {
		t.Fatalf("expected conflict while a generation runs, got %v", err)
	}
	if _, err := svc.Current(); apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Fatalf("rejected call must not install a world, got %v", err)
	}

	if _, err := svc.Generate(context.Background(), Params{MapSeed: 1, NumberOfSystems: 1, SystemSpread: 1}); err != nil {
		t.Fatalf("generate after release: %v", err)
	}
}

func TestServiceFailureKeepsCurrentWorld(t *testing.T) {
	svc := newTestService(t, []string{"Sol"})

	first, err := svc.Generate(context.Background(), Params{MapSeed: 1, NumberOfSystems: 1, SystemSpread: 1})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = svc.Generate(context.Background(), Params{MapSeed: 1, NumberOfSystems: 2, SystemSpread: 1})
	if !errors.Is(err, namegen.ErrExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	current, err := svc.Current()
	if err != nil || current != first {
		t.Fatalf("failed run must not replace the current world")
	}
}

func TestServiceEmptyCorpus(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Generate(context.Background(), Params{NumberOfSystems: 1, SystemSpread: 1})
	if apperrors.GetType(err) != apperrors.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceQueries(t *testing.T) {
	svc := newTestService(t, defaultNames(t))
	if _, err := svc.Generate(context.Background(), Params{MapSeed: 9, NumberOfSystems: 12, SystemSpread: 10, StarsEnabled: true}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	entry, err := svc.System(3)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	if entry.Index.Int() != 3 || entry.Star == nil || entry.Star.System != entry.Index {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if _, err := svc.System(12); apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Fatalf("expected not found past the end, got %v", err)
	}
	if _, err := svc.System(-1); apperrors.GetType(err) != apperrors.ErrorTypeValidation {
		t.Fatalf("expected validation error for negative index, got %v", err)
	}

	page, total, err := svc.Systems(10, 5)
	if err != nil {
		t.Fatalf("systems: %v", err)
	}
	if total != 12 || len(page) != 2 || page[0].Index.Int() != 10 {
		t.Fatalf("unexpected page total=%d len=%d", total, len(page))
	}
	if page, _, _ := svc.Systems(50, 5); len(page) != 0 {
		t.Fatalf("expected empty page past the end")
	}

	neighbors, err := svc.Nearest(0, 3)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(neighbors))
	}
	for i, n := range neighbors {
		if n.Index.Int() == 0 {
			t.Fatalf("origin must not be its own neighbor")
		}
		if i > 0 && n.Distance < neighbors[i-1].Distance {
			t.Fatalf("neighbors not sorted by distance")
		}
	}
	if all, _ := svc.Nearest(0, 100); len(all) != 11 {
		t.Fatalf("expected k to be capped at the other systems, got %d", len(all))
	}
	if _, err := svc.Nearest(0, 0); apperrors.GetType(err) != apperrors.ErrorTypeValidation {
		t.Fatalf("expected validation error for k=0, got %v", err)
	}

	if st, err := svc.Star(4); err != nil || st.System.Int() != 4 {
		t.Fatalf("unexpected star %+v (%v)", st, err)
	}
	if _, err := svc.Star(99); apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
