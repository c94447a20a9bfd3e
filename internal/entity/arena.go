package entity

import (
	"encoding/json"
	"fmt"
	"iter"
)

// OutOfRangeError is the panic value raised by Arena.Set when the index
// does not name an existing slot.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("entity: index %d out of range [0, %d)", e.Index, e.Len)
}

// Arena is a dense, append-only store for one entity kind. Indices are
// handed out in insertion order starting at 0 and stay valid until Reset
// or Drain; there is no removal.
//
// An Arena is not safe for concurrent mutation.
type Arena[T any] struct {
	items []T
}

// NewArena returns an empty arena with room for capacity entities.
func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Insert appends value and returns its index, which equals the length of
// the arena before the call.
func (a *Arena[T]) Insert(value T) Index[T] {
	idx := Index[T]{value: len(a.items)}
	a.items = append(a.items, value)
	return idx
}

// Get returns a copy of the entity at index. ok is false when index is
// past the end.
func (a *Arena[T]) Get(index Index[T]) (value T, ok bool) {
	if index.value >= len(a.items) {
		return value, false
	}
	return a.items[index.value], true
}

// GetMut returns a pointer to the live slot at index. The pointer is
// invalidated by the next Insert, Reset or Drain.
func (a *Arena[T]) GetMut(index Index[T]) (*T, bool) {
	if index.value >= len(a.items) {
		return nil, false
	}
	return &a.items[index.value], true
}

// Set overwrites the slot at index. Writing past the end is a caller bug,
// so Set panics with *OutOfRangeError instead of growing the arena.
func (a *Arena[T]) Set(index Index[T], value T) {
	if index.value >= len(a.items) {
		panic(&OutOfRangeError{Index: index.value, Len: len(a.items)})
	}
	a.items[index.value] = value
}

func (a *Arena[T]) Len() int {
	return len(a.items)
}

// All yields every index and entity in insertion order. Each call returns
// a fresh sequence.
func (a *Arena[T]) All() iter.Seq2[Index[T], T] {
	return func(yield func(Index[T], T) bool) {
		for i, v := range a.items {
			if !yield(Index[T]{value: i}, v) {
				return
			}
		}
	}
}

// Values yields every entity in insertion order.
func (a *Arena[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range a.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Mut yields a pointer to every slot in insertion order so entities can be
// updated in place. The sequence must not be used across an Insert.
func (a *Arena[T]) Mut() iter.Seq2[Index[T], *T] {
	return func(yield func(Index[T], *T) bool) {
		for i := range a.items {
			if !yield(Index[T]{value: i}, &a.items[i]) {
				return
			}
		}
	}
}

// Drain empties the arena and yields the entities it held, in insertion
// order. The arena is emptied when Drain is called, not when the sequence
// is consumed; all previously issued indices become invalid.
func (a *Arena[T]) Drain() iter.Seq[T] {
	items := a.items
	a.items = nil
	return func(yield func(T) bool) {
		for _, v := range items {
			if !yield(v) {
				return
			}
		}
	}
}

// Reset empties the arena, invalidating all issued indices.
func (a *Arena[T]) Reset() {
	clear(a.items)
	a.items = a.items[:0]
}

// MarshalJSON encodes the arena as a JSON array in index order.
func (a Arena[T]) MarshalJSON() ([]byte, error) {
	if a.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.items)
}

func (a *Arena[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	a.items = items
	return nil
}
