package world

import (
	"sync"

	"github.com/google/uuid"
)

// Room is an addressable location: static content fixed at load time plus
// dynamic occupancy mutated during play. Occupancy mutations are safe under
// concurrent invocation; each Room is an independent unit of mutual
// exclusion.
type Room struct {
	location    Location
	title       Text
	description Text
	exits       []Exit
	area        string
	filename    string
	fileIndex   string

	mu    sync.RWMutex
	items []string
	npcs  []string

	events *Emitter
}

// NewRoom constructs a Room from a loaded record. Behavior hooks are attached
// separately by the loader through a BehaviorAttacher.
//
// Precondition: cfg must have passed ValidateRoomRecord.
func NewRoom(cfg RoomConfig) *Room {
	exits := make([]Exit, len(cfg.Exits))
	copy(exits, cfg.Exits)
	return &Room{
		location:    cfg.Location,
		title:       cfg.Title,
		description: cfg.Description,
		exits:       exits,
		area:        cfg.Area,
		filename:    cfg.Filename,
		fileIndex:   cfg.FileIndex,
		events:      NewEmitter(),
	}
}

// Location returns the room's globally unique identifier.
func (r *Room) Location() Location { return r.location }

// Area returns the key of the area the room belongs to. The relation is not
// re-validated at construction; the area may not be registered.
func (r *Room) Area() string { return r.area }

// Filename returns the source file the room was loaded from. Diagnostics only.
func (r *Room) Filename() string { return r.filename }

// FileIndex returns the record key within the source file. Diagnostics only.
func (r *Room) FileIndex() string { return r.fileIndex }

// Exits returns a copy of the room's exit records in file order.
func (r *Room) Exits() []Exit {
	out := make([]Exit, len(r.exits))
	copy(out, r.exits)
	return out
}

// Title returns the room title resolved for the given locale.
func (r *Room) Title(locale string) string {
	return r.title.Resolve(locale)
}

// Description returns the room description resolved for the given locale.
func (r *Room) Description(locale string) string {
	return r.description.Resolve(locale)
}

// LeaveMessage returns an exit's departure message resolved for the given
// locale.
func (r *Room) LeaveMessage(exit Exit, locale string) string {
	return exit.LeaveMessage.Resolve(locale)
}

// Items returns a snapshot of the item instance ids currently in the room.
func (r *Room) Items() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

// Npcs returns a snapshot of the NPC instance ids currently in the room.
func (r *Room) Npcs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.npcs))
	copy(out, r.npcs)
	return out
}

// AddItem records an item instance as present in the room. Adding an id that
// is already present is a no-op.
func (r *Room) AddItem(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = addID(r.items, id)
}

// RemoveItem removes every exact match of id. Removing an absent id is a
// no-op.
func (r *Room) RemoveItem(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = removeID(r.items, id)
}

// HasItem reports whether the item instance is present in the room.
func (r *Room) HasItem(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return hasID(r.items, id)
}

// AddNpc records an NPC instance as present in the room. Adding an id that is
// already present is a no-op.
func (r *Room) AddNpc(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.npcs = addID(r.npcs, id)
}

// RemoveNpc removes every exact match of id. Removing an absent id is a no-op.
func (r *Room) RemoveNpc(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.npcs = removeID(r.npcs, id)
}

// HasNpc reports whether the NPC instance is present in the room.
func (r *Room) HasNpc(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return hasID(r.npcs, id)
}

// On registers a listener for the named room event and returns a token for
// Off.
func (r *Room) On(event string, fn ListenerFunc) uuid.UUID {
	return r.events.On(event, fn)
}

// Off removes the listener registered under the token.
func (r *Room) Off(event string, id uuid.UUID) {
	r.events.Off(event, id)
}

// Emit publishes an event to every listener attached to the room.
func (r *Room) Emit(event string, payload any) {
	r.events.Emit(event, payload)
}

// ListenerCount returns the number of listeners for the named room event.
func (r *Room) ListenerCount(event string) int {
	return r.events.ListenerCount(event)
}

// Flatten produces a plain snapshot resolved to the given reference locale,
// for consumers that cannot resolve locales themselves.
func (r *Room) Flatten(locale string) RoomView {
	return RoomView{
		Title:       r.title.Resolve(locale),
		Description: r.description.Resolve(locale),
		Exits:       r.Exits(),
		Location:    r.location,
		Area:        r.area,
	}
}

// Stringify produces the raw snapshot with unresolved title and description.
func (r *Room) Stringify() RoomSnapshot {
	return RoomSnapshot{
		Title:       r.title,
		Description: r.description,
		Exits:       r.Exits(),
		Location:    r.location,
		Area:        r.area,
	}
}

func addID(ids []string, id string) []string {
	if hasID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func hasID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
