package world

import (
	"sort"
	"sync"
)

// Index is the in-memory world store: rooms keyed by location and areas keyed
// by manifest key. It is populated once during the load pass and read
// concurrently by the rest of the engine for the life of the process.
type Index struct {
	mu    sync.RWMutex
	rooms map[Location]*Room
	areas map[string]*Area
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{
		rooms: make(map[Location]*Room),
		areas: make(map[string]*Area),
	}
}

// RoomAt returns the room registered at the given location.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (ix *Index) RoomAt(loc Location) (*Room, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	r, ok := ix.rooms[loc]
	return r, ok
}

// Area returns the area registered under the given manifest key.
//
// Postcondition: Returns (area, true) if found, or (nil, false) otherwise.
func (ix *Index) Area(key string) (*Area, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	a, ok := ix.areas[key]
	return a, ok
}

// RoomCount returns the number of registered rooms.
func (ix *Index) RoomCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.rooms)
}

// AreaCount returns the number of registered areas.
func (ix *Index) AreaCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.areas)
}

// AllAreas returns all registered areas sorted by key.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (ix *Index) AllAreas() []*Area {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	areas := make([]*Area, 0, len(ix.areas))
	for _, a := range ix.areas {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].Key < areas[j].Key })
	return areas
}

// AllRooms returns all registered rooms sorted by location.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (ix *Index) AllRooms() []*Room {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rooms := make([]*Room, 0, len(ix.rooms))
	for _, r := range ix.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].location < rooms[j].location })
	return rooms
}

// putRoom registers a room under its location, replacing any earlier room at
// the same location. Reports whether a replacement happened so the loader can
// emit a diagnostic.
func (ix *Index) putRoom(r *Room) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, replaced := ix.rooms[r.location]
	ix.rooms[r.location] = r
	return replaced
}

// putArea registers an area under its manifest key.
func (ix *Index) putArea(a *Area) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.areas[a.Key] = a
}
