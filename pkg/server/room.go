package server

import (
	"fmt"
	"sync"

	"github.com/conversa-chat/conversa/pkg/protocol"
)

// Room is a named broadcast group. Members are kept in join order so
// listings are deterministic. All mutating operations and broadcasts hold
// the room mutex, so every broadcast sees a consistent membership set.
//
// A Room never reaches into the registries; membership invariants that span
// rooms (a session is in at most one room) are enforced by RoomRegistry.
type Room struct {
	name string

	mu      sync.Mutex
	members []*Session
}

func newRoom(name string) *Room {
	return &Room{name: name}
}

// Name returns the immutable room name.
func (r *Room) Name() string { return r.name }

// Add inserts a session and notifies the other members. The caller has
// already validated that the session is not in another room.
func (r *Room) Add(s *Session) {
	name := s.Username()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, s)
	r.notifyOthers(protocol.Info(fmt.Sprintf("%s entrou na sala.", name)), s)
}

// Remove removes a session and notifies the remaining members. Removing a
// session that is not present is a no-op. Returns whether the room is now
// empty, signalling the registry to delete it.
func (r *Room) Remove(s *Session) (empty bool) {
	name := s.Username()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.removeLocked(s) {
		return len(r.members) == 0
	}
	r.notifyOthers(protocol.Info(fmt.Sprintf("%s saiu da sala.", name)), nil)
	return len(r.members) == 0
}

// removeUser removes a member by username without a departure notice; the
// kick path broadcasts its own text instead. Returns the removed session
// (nil if the name is not a member) and whether the room is now empty.
func (r *Room) removeUser(username string) (target *Session, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Username() == username {
			target = m
			break
		}
	}
	if target != nil {
		r.removeLocked(target)
	}
	return target, len(r.members) == 0
}

// closeAndNotify sends a system notice to every member, empties the room and
// returns the displaced sessions so the registry can clear their room state.
func (r *Room) closeAndNotify(text string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	displaced := r.members
	for _, m := range displaced {
		m.Send(protocol.Info(text))
	}
	r.members = nil
	return displaced
}

// BroadcastChat sends a formatted chat event to every member except the sender.
func (r *Room) BroadcastChat(from *Session, text string) {
	event := protocol.Msg(from.Username(), r.name, text)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m != from {
			m.Send(event)
		}
	}
}

// BroadcastSystem sends an informational event to every member except
// exclude (nil excludes nobody).
func (r *Room) BroadcastSystem(text string, exclude *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyOthers(protocol.Info(text), exclude)
}

// Members returns a copy-on-read snapshot of the member list in join order.
func (r *Room) Members() []protocol.UserInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]protocol.UserInfo, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, protocol.UserInfo{Username: m.Username(), Admin: m.Admin()})
	}
	return users
}

// Len returns the current member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// notifyOthers sends an event to every member except exclude. Callers hold r.mu.
func (r *Room) notifyOthers(event string, exclude *Session) {
	for _, m := range r.members {
		if m != exclude {
			m.Send(event)
		}
	}
}

// removeLocked removes s from the member slice preserving order.
// Callers hold r.mu. Returns false if s was not a member.
func (r *Room) removeLocked(s *Session) bool {
	for i, m := range r.members {
		if m == s {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}
