package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/conversa-chat/conversa/pkg/protocol"
)

func memberSession(id uint64, name string, admin bool) (*Session, *fakeConn) {
	conn := newFakeConn()
	sess := newSession(id, conn)
	sess.bindLogin(name, admin)
	return sess, conn
}

func TestRoomAddNotifiesOthers(t *testing.T) {
	room := newRoom("lobby")

	alice, aliceConn := memberSession(1, "alice", false)
	bob, bobConn := memberSession(2, "bob", false)

	room.Add(alice)
	room.Add(bob)

	if !contains(aliceConn.Sent(), "INFO:bob entrou na sala.") {
		t.Errorf("alice missing join notice, got %v", aliceConn.Sent())
	}
	// The joining member gets no notice about themselves.
	if contains(bobConn.Sent(), "INFO:bob entrou na sala.") {
		t.Errorf("bob received own join notice")
	}
}

func TestRoomRemoveNotifiesRemaining(t *testing.T) {
	room := newRoom("lobby")

	alice, aliceConn := memberSession(1, "alice", false)
	bob, _ := memberSession(2, "bob", false)
	room.Add(alice)
	room.Add(bob)

	empty := room.Remove(bob)
	if empty {
		t.Fatalf("Remove: room reported empty with alice still present")
	}
	if !contains(aliceConn.Sent(), "INFO:bob saiu da sala.") {
		t.Errorf("alice missing departure notice, got %v", aliceConn.Sent())
	}

	if empty := room.Remove(alice); !empty {
		t.Fatalf("Remove: room not empty after last member left")
	}
}

func TestRoomRemoveAbsentSession(t *testing.T) {
	room := newRoom("lobby")
	ghost, _ := memberSession(1, "ghost", false)

	if empty := room.Remove(ghost); !empty {
		t.Fatalf("Remove on empty room: expected empty=true")
	}
}

func TestBroadcastChatExcludesSender(t *testing.T) {
	room := newRoom("lobby")

	alice, aliceConn := memberSession(1, "alice", false)
	bob, bobConn := memberSession(2, "bob", false)
	carla, carlaConn := memberSession(3, "carla", false)
	room.Add(alice)
	room.Add(bob)
	room.Add(carla)

	room.BroadcastChat(alice, "oi pessoal")

	want := "MSG:alice:lobby:oi pessoal"
	if !contains(bobConn.Sent(), want) {
		t.Errorf("bob missing chat message, got %v", bobConn.Sent())
	}
	if !contains(carlaConn.Sent(), want) {
		t.Errorf("carla missing chat message, got %v", carlaConn.Sent())
	}
	if contains(aliceConn.Sent(), want) {
		t.Errorf("sender received own chat message")
	}
}

func TestRemoveUserIsQuiet(t *testing.T) {
	room := newRoom("lobby")

	alice, aliceConn := memberSession(1, "alice", false)
	bob, _ := memberSession(2, "bob", false)
	room.Add(alice)
	room.Add(bob)
	before := len(aliceConn.Sent())

	target, empty := room.removeUser("bob")
	if target != bob {
		t.Fatalf("removeUser returned %v, want bob", target)
	}
	if empty {
		t.Fatalf("removeUser: room reported empty with alice present")
	}
	// No departure notice on the kick path; the dispatcher broadcasts its own.
	if got := aliceConn.Sent(); len(got) != before {
		t.Errorf("alice received unexpected notices: %v", got[before:])
	}

	if target, _ := room.removeUser("ghost"); target != nil {
		t.Errorf("removeUser(ghost) = %v, want nil", target)
	}
}

func TestCloseAndNotify(t *testing.T) {
	room := newRoom("lobby")

	alice, aliceConn := memberSession(1, "alice", false)
	bob, bobConn := memberSession(2, "bob", false)
	room.Add(alice)
	room.Add(bob)

	displaced := room.closeAndNotify("A sala 'lobby' foi encerrada pelo administrador")
	if len(displaced) != 2 {
		t.Fatalf("closeAndNotify displaced %d sessions, want 2", len(displaced))
	}
	want := "INFO:A sala 'lobby' foi encerrada pelo administrador"
	if !contains(aliceConn.Sent(), want) || !contains(bobConn.Sent(), want) {
		t.Errorf("members missing close notice")
	}
	if room.Len() != 0 {
		t.Errorf("Len after close = %d, want 0", room.Len())
	}
}

func TestMembersSnapshotInJoinOrder(t *testing.T) {
	room := newRoom("lobby")

	admin, _ := memberSession(1, "root", true)
	bob, _ := memberSession(2, "bob", false)
	room.Add(admin)
	room.Add(bob)

	got := room.Members()
	want := []protocol.UserInfo{
		{Username: "root", Admin: true},
		{Username: "bob"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}

	// Snapshot, not a live view.
	room.Remove(bob)
	if len(got) != 2 {
		t.Errorf("snapshot changed after Remove")
	}
}
