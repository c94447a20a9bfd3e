package namegen

import (
	"math/rand"
	"strings"
	"unicode"
)

const (
	startMarker rune = '\x02'
	endMarker   rune = '\x03'
)

// successors holds the observed next runes for one state. Runes are kept in
// first-seen order so that a walk depends only on the training sequence and
// the random stream, never on map iteration order.
type successors struct {
	runes  []rune
	counts []int
	total  int
	pos    map[rune]int
}

func (s *successors) add(r rune) {
	if i, ok := s.pos[r]; ok {
		s.counts[i]++
	} else {
		s.pos[r] = len(s.runes)
		s.runes = append(s.runes, r)
		s.counts = append(s.counts, 1)
	}
	s.total++
}

func (s *successors) pick(rng *rand.Rand) rune {
	roll := rng.Intn(s.total)
	for i, c := range s.counts {
		if roll < c {
			return s.runes[i]
		}
		roll -= c
	}
	return endMarker
}

// chain is a character-level Markov chain of fixed order. Each state is the
// last order runes, left-padded with start markers.
type chain struct {
	order       int
	transitions map[string]*successors
}

func newChain(order int) *chain {
	return &chain{
		order:       order,
		transitions: make(map[string]*successors),
	}
}

func (c *chain) empty() bool {
	return len(c.transitions) == 0
}

func (c *chain) startState() []rune {
	state := make([]rune, c.order)
	for i := range state {
		state[i] = startMarker
	}
	return state
}

// feed records every transition of one example, including the final
// transition to the end marker.
func (c *chain) feed(example []rune) {
	state := c.startState()
	for _, r := range append(example, endMarker) {
		key := string(state)
		succ, ok := c.transitions[key]
		if !ok {
			succ = &successors{pos: make(map[rune]int)}
			c.transitions[key] = succ
		}
		succ.add(r)
		state = append(state[1:], r)
	}
}

// walk draws one name. ok is false when the walk exceeds maxLength runes
// before reaching the end marker.
func (c *chain) walk(rng *rand.Rand, maxLength int) (name string, ok bool) {
	var b strings.Builder
	state := c.startState()
	length := 0

	for {
		succ, found := c.transitions[string(state)]
		if !found {
			return b.String(), true
		}
		r := succ.pick(rng)
		if r == endMarker {
			return b.String(), true
		}
		length++
		if length > maxLength {
			return "", false
		}
		b.WriteRune(r)
		state = append(state[1:], r)
	}
}

// normalize trims the example and drops control runes, which would clash
// with the chain's markers.
func normalize(example string) []rune {
	example = strings.TrimSpace(example)
	runes := make([]rune, 0, len(example))
	for _, r := range example {
		if unicode.IsControl(r) {
			continue
		}
		runes = append(runes, r)
	}
	return runes
}
