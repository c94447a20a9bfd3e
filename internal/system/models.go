package system

import (
	"prospero-server/internal/entity"
	"prospero-server/internal/geometry"
)

// System is a single star system placed in the galaxy plane.
type System struct {
	Location geometry.Point `json:"location"`
	Name     string         `json:"name"`
}

// Index addresses a System in a world's system arena.
type Index = entity.Index[System]

// Arena stores the systems of one world.
type Arena = entity.Arena[System]

func New(location geometry.Point, name string) System {
	return System{Location: location, Name: name}
}

// SameLocation reports whether two systems occupy exactly the same point.
// Systems are identified by location, not by name.
func (s System) SameLocation(other System) bool {
	return s.Location.Equal(other.Location)
}

// Hash buckets the system by its location.
func (s System) Hash() uint64 {
	return s.Location.Hash()
}
