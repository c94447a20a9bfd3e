package entity

import (
	"fmt"
	"strconv"
)

// Index identifies one slot of an Arena[T]. The type parameter only tags
// the handle: Index[system.System] and Index[star.Star] are distinct types,
// so a handle cannot be used with another kind's arena.
type Index[T any] struct {
	value int
}

// NewIndex converts a raw slot number into a typed index.
// Panics if i is negative.
func NewIndex[T any](i int) Index[T] {
	if i < 0 {
		panic(fmt.Sprintf("entity: negative index %d", i))
	}
	return Index[T]{value: i}
}

// Int returns the raw slot number.
func (i Index[T]) Int() int {
	return i.value
}

func (i Index[T]) String() string {
	return "#" + strconv.Itoa(i.value)
}

// MarshalJSON encodes the index as a bare JSON number.
func (i Index[T]) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(i.value), 10), nil
}

func (i *Index[T]) UnmarshalJSON(data []byte) error {
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("entity: invalid index %s: %w", data, err)
	}
	if v < 0 {
		return fmt.Errorf("entity: negative index %d", v)
	}
	i.value = v
	return nil
}
