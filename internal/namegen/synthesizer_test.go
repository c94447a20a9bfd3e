package namegen

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"unicode/utf8"
)

func TestSingleExampleThenExhausted(t *testing.T) {
	s := NewSynthesizer()
	s.Train("elizabeth")
	rng := rand.New(rand.NewSource(1))

	name, err := s.Generate(rng)
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if name != "elizabeth" {
		t.Fatalf("expected the only reachable name, got %q", name)
	}

	if _, err := s.Generate(rng); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestTwoDisjointExamples(t *testing.T) {
	s := NewSynthesizer()
	s.TrainAll([]string{"Sol", "Centauri"})
	rng := rand.New(rand.NewSource(5))

	var got []string
	for i := 0; i < 2; i++ {
		name, err := s.Generate(rng)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		got = append(got, name)
	}
	slices.Sort(got)
	if !slices.Equal(got, []string{"Centauri", "Sol"}) {
		t.Fatalf("expected both training names, got %v", got)
	}

	if _, err := s.Generate(rng); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted on third draw, got %v", err)
	}
	if s.Emitted() != 2 {
		t.Fatalf("expected 2 emitted names, got %d", s.Emitted())
	}
}

func TestGenerateNeverRepeats(t *testing.T) {
	s := NewSynthesizer()
	s.TrainAll(sampleCorpus)
	rng := rand.New(rand.NewSource(1234))

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		name, err := s.Generate(rng)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if _, dup := seen[name]; dup {
			t.Fatalf("duplicate name %q on draw %d", name, i)
		}
		seen[name] = struct{}{}
	}
	if len(seen) < 50 {
		t.Fatalf("expected a reasonable variety of names, got %d", len(seen))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	draw := func() []string {
		s := NewSynthesizer()
		s.TrainAll(sampleCorpus)
		rng := rand.New(rand.NewSource(77))
		var names []string
		for i := 0; i < 40; i++ {
			name, err := s.Generate(rng)
			if err != nil {
				t.Fatalf("draw %d: %v", i, err)
			}
			names = append(names, name)
		}
		return names
	}

	if a, b := draw(), draw(); !slices.Equal(a, b) {
		t.Fatalf("same seed and corpus produced different names:\n%v\n%v", a, b)
	}
}

func TestMaxLength(t *testing.T) {
	s := NewSynthesizer(WithMaxLength(5))
	s.TrainAll(sampleCorpus)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 30; i++ {
		name, err := s.Generate(rng)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if n := utf8.RuneCountInString(name); n > 5 {
			t.Fatalf("name %q has %d runes", name, n)
		}
	}
}

func TestMaxTries(t *testing.T) {
	s := NewSynthesizer(WithMaxTries(1))
	s.Train("Sol")
	rng := rand.New(rand.NewSource(1))

	// With a single try the novelty phase is empty, so the verbatim
	// example is accepted immediately.
	if name, err := s.Generate(rng); err != nil || name != "Sol" {
		t.Fatalf("expected Sol, got %q (%v)", name, err)
	}
	if _, err := s.Generate(rng); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestUntrainedAndNilStream(t *testing.T) {
	s := NewSynthesizer()
	if _, err := s.Generate(rand.New(rand.NewSource(1))); !errors.Is(err, ErrUntrained) {
		t.Fatalf("expected ErrUntrained, got %v", err)
	}

	s.Train("   ")
	if s.Examples() != 0 {
		t.Fatalf("blank examples should be ignored")
	}

	s.Train("Sol")
	if _, err := s.Generate(nil); err == nil {
		t.Fatalf("expected error for nil stream")
	}
}

func TestReset(t *testing.T) {
	s := NewSynthesizer()
	s.Train("Sol")
	rng := rand.New(rand.NewSource(9))

	if _, err := s.Generate(rng); err != nil {
		t.Fatalf("first draw: %v", err)
	}
	s.Reset()
	if s.Emitted() != 0 {
		t.Fatalf("reset should clear emitted names")
	}
	if name, err := s.Generate(rng); err != nil || name != "Sol" {
		t.Fatalf("expected Sol after reset, got %q (%v)", name, err)
	}
}

func TestOrderOption(t *testing.T) {
	s := NewSynthesizer(WithOrder(3), WithOrder(0))
	if s.chain.order != 3 {
		t.Fatalf("expected order 3, got %d", s.chain.order)
	}
}

func TestNormalize(t *testing.T) {
	if got := string(normalize("  Al\x02tair\n")); got != "Altair" {
		t.Fatalf("expected control runes stripped, got %q", got)
	}
}

var sampleCorpus = []string{
	"Altair", "Vega", "Sirius", "Arcturus", "Capella", "Rigel", "Procyon",
	"Betelgeuse", "Aldebaran", "Spica", "Antares", "Pollux", "Fomalhaut",
	"Deneb", "Regulus", "Adhara", "Castor", "Gacrux", "Bellatrix", "Elnath",
	"Miaplacidus", "Alnilam", "Alnair", "Alioth", "Dubhe", "Mirfak", "Wezen",
	"Sargas", "Kaus", "Avior", "Menkalinan", "Atria", "Alhena", "Peacock",
	"Alsephina", "Mirzam", "Polaris", "Alphard", "Hamal", "Algieba", "Diphda",
	"Mizar", "Nunki", "Menkent", "Mirach", "Alpheratz", "Rasalhague", "Kochab",
	"Saiph", "Zubenelgenubi", "Enif", "Schedar", "Markab", "Unukalhai",
}
