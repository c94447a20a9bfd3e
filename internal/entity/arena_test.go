package entity_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"prospero-server/internal/entity"
)

type body struct {
	Name string
	Mass float64
}

type marker struct {
	ID int
}

func TestArenaInsertAndGet(t *testing.T) {
	arena := entity.NewArena[body](0)

	for i, name := range []string{"Sol", "Centauri", "Vega"} {
		before := arena.Len()
		idx := arena.Insert(body{Name: name, Mass: float64(i)})

		if idx.Int() != before {
			t.Fatalf("expected index %d, got %d", before, idx.Int())
		}
		got, ok := arena.Get(idx)
		if !ok {
			t.Fatalf("expected entity at %v", idx)
		}
		if got.Name != name {
			t.Fatalf("expected %q, got %q", name, got.Name)
		}
	}

	if arena.Len() != 3 {
		t.Fatalf("expected len 3, got %d", arena.Len())
	}
}

func TestArenaDensity(t *testing.T) {
	const k = 100
	arena := entity.NewArena[marker](k)
	for i := 0; i < k; i++ {
		arena.Insert(marker{ID: i})
	}

	if arena.Len() != k {
		t.Fatalf("expected len %d, got %d", k, arena.Len())
	}
	for i := 0; i < k; i++ {
		got, ok := arena.Get(entity.NewIndex[marker](i))
		if !ok {
			t.Fatalf("expected slot %d to be live", i)
		}
		if got.ID != i {
			t.Fatalf("slot %d holds %d", i, got.ID)
		}
	}
}

func TestArenaGetOutOfRange(t *testing.T) {
	arena := entity.NewArena[marker](0)
	arena.Insert(marker{ID: 1})

	if _, ok := arena.Get(entity.NewIndex[marker](1)); ok {
		t.Fatalf("expected miss past the end")
	}
	if p, ok := arena.GetMut(entity.NewIndex[marker](5)); ok || p != nil {
		t.Fatalf("expected nil pointer past the end")
	}
	if arena.Len() != 1 {
		t.Fatalf("lookups must not grow the arena, len=%d", arena.Len())
	}
}

func TestArenaGetMut(t *testing.T) {
	arena := entity.NewArena[body](0)
	idx := arena.Insert(body{Name: "Sol"})

	p, ok := arena.GetMut(idx)
	if !ok {
		t.Fatalf("expected live slot")
	}
	p.Mass = 1.989e30

	got, _ := arena.Get(idx)
	if got.Mass != 1.989e30 {
		t.Fatalf("mutation through GetMut was not stored")
	}
}

func TestArenaSet(t *testing.T) {
	arena := entity.NewArena[body](0)
	idx := arena.Insert(body{Name: "Sol"})

	arena.Set(idx, body{Name: "Helios"})
	if got, _ := arena.Get(idx); got.Name != "Helios" {
		t.Fatalf("expected overwrite, got %q", got.Name)
	}

	t.Run("past the end panics", func(t *testing.T) {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("expected panic")
			}
			err, ok := r.(error)
			if !ok {
				t.Fatalf("expected error panic value, got %T", r)
			}
			var oor *entity.OutOfRangeError
			if !errors.As(err, &oor) {
				t.Fatalf("expected *OutOfRangeError, got %v", err)
			}
			if oor.Index != 1 || oor.Len != 1 {
				t.Fatalf("unexpected error fields %+v", oor)
			}
		}()
		arena.Set(entity.NewIndex[body](1), body{Name: "Ghost"})
	})

	if arena.Len() != 1 {
		t.Fatalf("failed Set must not grow the arena")
	}
}

func TestArenaIteration(t *testing.T) {
	arena := entity.NewArena[marker](0)
	for i := 0; i < 5; i++ {
		arena.Insert(marker{ID: i * 10})
	}

	var first []int
	for idx, p := range arena.All() {
		if p.ID != idx.Int()*10 {
			t.Fatalf("index %d paired with %d", idx.Int(), p.ID)
		}
		first = append(first, p.ID)
	}

	var second []int
	for p := range arena.Values() {
		second = append(second, p.ID)
	}
	if !slices.Equal(first, second) || len(first) != 5 {
		t.Fatalf("iteration not restartable: %v vs %v", first, second)
	}

	for _, p := range arena.Mut() {
		p.ID++
	}
	if got, _ := arena.Get(entity.NewIndex[marker](4)); got.ID != 41 {
		t.Fatalf("expected in-place update, got %d", got.ID)
	}

	seen := 0
	for range arena.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("early break not honoured")
	}
}

func TestArenaDrainAndReset(t *testing.T) {
	arena := entity.NewArena[marker](0)
	arena.Insert(marker{ID: 1})
	arena.Insert(marker{ID: 2})

	drained := slices.Collect(arena.Drain())
	if len(drained) != 2 || drained[1].ID != 2 {
		t.Fatalf("unexpected drained values %v", drained)
	}
	if arena.Len() != 0 {
		t.Fatalf("drain should empty the arena")
	}

	idx := arena.Insert(marker{ID: 3})
	if idx.Int() != 0 {
		t.Fatalf("expected fresh numbering after drain, got %d", idx.Int())
	}

	arena.Reset()
	if _, ok := arena.Get(idx); ok {
		t.Fatalf("reset should invalidate indices")
	}
}

func TestArenaJSON(t *testing.T) {
	arena := entity.NewArena[body](0)
	arena.Insert(body{Name: "Sol", Mass: 1})
	arena.Insert(body{Name: "Vega", Mass: 2.1})

	data, err := json.Marshal(arena)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `[{"Name":"Sol","Mass":1},{"Name":"Vega","Mass":2.1}]`; string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}

	var decoded entity.Arena[body]
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := decoded.Get(entity.NewIndex[body](1)); !ok || got.Name != "Vega" {
		t.Fatalf("unexpected decoded slot %+v", got)
	}

	empty, _ := json.Marshal(entity.NewArena[body](0))
	if string(empty) != "[]" {
		t.Fatalf("empty arena should encode as [], got %s", empty)
	}
}

func TestIndex(t *testing.T) {
	idx := entity.NewIndex[marker](7)
	if idx.Int() != 7 || idx.String() != "#7" {
		t.Fatalf("unexpected index %v", idx)
	}

	data, _ := json.Marshal(idx)
	if string(data) != "7" {
		t.Fatalf("expected bare number, got %s", data)
	}

	var back entity.Index[marker]
	if err := json.Unmarshal([]byte("12"), &back); err != nil || back.Int() != 12 {
		t.Fatalf("unmarshal: %v %v", back, err)
	}
	if err := json.Unmarshal([]byte("-1"), &back); err == nil {
		t.Fatalf("expected negative index to be rejected")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for negative index")
		}
	}()
	entity.NewIndex[marker](-1)
}
