package server

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/conversa-chat/conversa/pkg/model"
	"github.com/conversa-chat/conversa/pkg/protocol"
)

// RoomRegistry owns the process-wide room table: creation, lookup, deletion
// and every membership change. A single registry mutex serializes membership
// mutations so a session's room pointer and the member sets never diverge,
// and listings reflect a single instant.
type RoomRegistry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	autoCreate bool
	metrics    *Metrics
}

// NewRoomRegistry creates an empty room registry. When autoCreate is set,
// entering an absent room creates it (the legacy behavior); otherwise the
// enter fails with model.ErrRoomNotFound.
func NewRoomRegistry(autoCreate bool, metrics *Metrics) *RoomRegistry {
	return &RoomRegistry{
		rooms:      make(map[string]*Room),
		autoCreate: autoCreate,
		metrics:    metrics,
	}
}

// Create inserts a new empty room. The existence check and the insert happen
// under one lock.
func (rr *RoomRegistry) Create(name string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if _, exists := rr.rooms[name]; exists {
		return model.ErrRoomExists
	}
	rr.rooms[name] = newRoom(name)
	rr.metrics.RoomsCreated.Add(1)
	slog.Info("room created", "room", name)
	return nil
}

// Get looks up a room by name, or nil.
func (rr *RoomRegistry) Get(name string) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.rooms[name]
}

// Enter adds a session to the named room and binds the session's room
// pointer in the same step. The joining member is announced to the others.
func (rr *RoomRegistry) Enter(s *Session, name string) (*Room, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if s.Room() != nil {
		return nil, model.ErrAlreadyInRoom
	}
	room, ok := rr.rooms[name]
	if !ok {
		if !rr.autoCreate {
			return nil, model.ErrRoomNotFound
		}
		room = newRoom(name)
		rr.rooms[name] = room
		rr.metrics.RoomsCreated.Add(1)
		slog.Info("room created", "room", name, "auto", true)
	}
	room.Add(s)
	s.setRoom(room)
	return room, nil
}

// Exit removes a session from its current room, announcing the departure.
// A session with no current room is a no-op. An emptied room is deleted.
func (rr *RoomRegistry) Exit(s *Session) (left *Room, emptied bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room := s.Room()
	if room == nil {
		return nil, false
	}
	empty := room.Remove(s)
	s.setRoom(nil)
	if empty {
		rr.deleteEmptied(room)
	}
	return room, empty
}

// Close deletes the named room after notifying every member, and clears the
// room pointer of each displaced session.
func (rr *RoomRegistry) Close(name string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[name]
	if !ok {
		return model.ErrRoomNotFound
	}
	displaced := room.closeAndNotify(fmt.Sprintf("A sala '%s' foi encerrada pelo administrador", name))
	for _, s := range displaced {
		s.setRoom(nil)
	}
	delete(rr.rooms, name)
	rr.metrics.RoomsClosed.Add(1)
	slog.Info("room closed by admin", "room", name, "displaced", len(displaced))
	return nil
}

// Kick removes the named user from the given room, clears their room pointer
// and sends them a system notice. The caller decides what the remaining
// members are told. An emptied room is deleted like on a normal exit.
func (rr *RoomRegistry) Kick(room *Room, targetUsername string) (*Session, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if cur, ok := rr.rooms[room.Name()]; !ok || cur != room {
		return nil, model.ErrRoomNotFound
	}
	target, empty := room.removeUser(targetUsername)
	if target == nil {
		return nil, model.ErrUserNotInRoom
	}
	target.setRoom(nil)
	target.Send(protocol.Info(fmt.Sprintf("Você foi expulso da sala '%s' por um administrador", room.Name())))
	if empty {
		rr.deleteEmptied(room)
	}
	return target, nil
}

// List returns (name, member count) pairs sorted by name. Membership changes
// hold the registry mutex, so the counts reflect one instant.
func (rr *RoomRegistry) List() []protocol.RoomInfo {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	infos := make([]protocol.RoomInfo, 0, len(rr.rooms))
	for name, room := range rr.rooms {
		infos = append(infos, protocol.RoomInfo{Name: name, Count: room.Len()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Len returns the number of rooms.
func (rr *RoomRegistry) Len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.rooms)
}

// deleteEmptied drops a room that lost its last member. Callers hold rr.mu.
func (rr *RoomRegistry) deleteEmptied(room *Room) {
	delete(rr.rooms, room.Name())
	rr.metrics.RoomsEmptied.Add(1)
	slog.Info("room removed (empty)", "room", room.Name())
}
