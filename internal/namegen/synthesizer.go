package namegen

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrExhausted is returned when no unseen name was drawn within the
	// retry budget.
	ErrExhausted = errors.New("namegen: unique names exhausted")
	// ErrUntrained is returned by Generate before any example was trained.
	ErrUntrained = errors.New("namegen: model has no training data")
)

const (
	DefaultOrder     = 2
	DefaultMaxLength = 24
	DefaultMaxTries  = 1000
)

// Synthesizer generates names that resemble its training examples. Every
// name it returns is unique among the names it returned since the last
// Reset.
//
// A Synthesizer is owned by one generation run and is not safe for
// concurrent use.
type Synthesizer struct {
	chain     *chain
	examples  map[string]struct{}
	emitted   map[string]struct{}
	maxLength int
	maxTries  int
}

type Option func(*Synthesizer)

// WithOrder sets the number of preceding characters a transition depends
// on. Must be called before training; values below 1 are ignored.
func WithOrder(order int) Option {
	return func(s *Synthesizer) {
		if order >= 1 {
			s.chain = newChain(order)
		}
	}
}

// WithMaxLength rejects drawn names longer than n runes.
func WithMaxLength(n int) Option {
	return func(s *Synthesizer) {
		if n >= 1 {
			s.maxLength = n
		}
	}
}

// WithMaxTries sets the number of draws per Generate call.
func WithMaxTries(n int) Option {
	return func(s *Synthesizer) {
		if n >= 1 {
			s.maxTries = n
		}
	}
}

func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		chain:     newChain(DefaultOrder),
		examples:  make(map[string]struct{}),
		emitted:   make(map[string]struct{}),
		maxLength: DefaultMaxLength,
		maxTries:  DefaultMaxTries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Train feeds one example name into the model. Blank examples are ignored.
func (s *Synthesizer) Train(example string) {
	runes := normalize(example)
	if len(runes) == 0 {
		return
	}
	s.chain.feed(runes)
	s.examples[string(runes)] = struct{}{}
}

// TrainAll feeds the examples in order.
func (s *Synthesizer) TrainAll(examples []string) {
	for _, example := range examples {
		s.Train(example)
	}
}

// Generate draws a name that has not been returned before, reading all
// randomness from rng.
//
// A draw is rejected when it is empty, longer than the maximum length, or
// already emitted. During the first half of the budget verbatim training
// examples are rejected too, so novel names win whenever the model can
// produce them. After maxTries rejected draws Generate fails with an error
// wrapping ErrExhausted; it never returns a duplicate.
func (s *Synthesizer) Generate(rng *rand.Rand) (string, error) {
	if rng == nil {
		return "", fmt.Errorf("namegen: nil random stream")
	}
	if s.chain.empty() {
		return "", ErrUntrained
	}

	noveltyTries := s.maxTries / 2
	for attempt := 0; attempt < s.maxTries; attempt++ {
		name, ok := s.chain.walk(rng, s.maxLength)
		if !ok || name == "" {
			continue
		}
		if _, seen := s.emitted[name]; seen {
			continue
		}
		if _, verbatim := s.examples[name]; verbatim && attempt < noveltyTries {
			continue
		}

		s.emitted[name] = struct{}{}
		return name, nil
	}

	return "", fmt.Errorf("%w after %d attempts (%d names emitted)", ErrExhausted, s.maxTries, len(s.emitted))
}

// Emitted returns how many names have been handed out since the last Reset.
func (s *Synthesizer) Emitted() int {
	return len(s.emitted)
}

// Examples returns the number of distinct training examples.
func (s *Synthesizer) Examples() int {
	return len(s.examples)
}

// Reset forgets the emitted names but keeps the trained model.
func (s *Synthesizer) Reset() {
	clear(s.emitted)
}
