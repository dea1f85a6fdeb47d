package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/conversa-chat/conversa/pkg/model"
	"github.com/conversa-chat/conversa/pkg/protocol"
)

func TestCreateRejectsDuplicate(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())

	if err := rr.Create("lobby"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := rr.Create("lobby"); err != model.ErrRoomExists {
		t.Fatalf("Create duplicate = %v, want ErrRoomExists", err)
	}
	if got := rr.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestEnterAutoCreates(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	sess, _ := memberSession(1, "alice", false)

	room, err := rr.Enter(sess, "lobby")
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if room.Name() != "lobby" {
		t.Errorf("Enter returned room %q, want lobby", room.Name())
	}
	if sess.Room() != room {
		t.Errorf("session room pointer not bound")
	}
	if rr.Get("lobby") != room {
		t.Errorf("registry missing auto-created room")
	}
}

func TestEnterWithoutAutoCreate(t *testing.T) {
	rr := NewRoomRegistry(false, NewMetrics())
	sess, _ := memberSession(1, "alice", false)

	if _, err := rr.Enter(sess, "lobby"); err != model.ErrRoomNotFound {
		t.Fatalf("Enter absent room = %v, want ErrRoomNotFound", err)
	}
	if sess.Room() != nil {
		t.Errorf("failed enter left session bound to a room")
	}

	if err := rr.Create("lobby"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := rr.Enter(sess, "lobby"); err != nil {
		t.Fatalf("Enter existing room: %v", err)
	}
}

func TestEnterWhileInRoom(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	sess, _ := memberSession(1, "alice", false)

	if _, err := rr.Enter(sess, "lobby"); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if _, err := rr.Enter(sess, "games"); err != model.ErrAlreadyInRoom {
		t.Fatalf("second Enter = %v, want ErrAlreadyInRoom", err)
	}
	// The failed enter must not have created the second room.
	if rr.Get("games") != nil {
		t.Errorf("failed enter created room")
	}
}

func TestExitDeletesEmptiedRoom(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	sess, _ := memberSession(1, "alice", false)

	if _, err := rr.Enter(sess, "lobby"); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	left, emptied := rr.Exit(sess)
	if left == nil || left.Name() != "lobby" {
		t.Fatalf("Exit left = %v, want lobby", left)
	}
	if !emptied {
		t.Errorf("Exit: room not reported emptied")
	}
	if rr.Get("lobby") != nil {
		t.Errorf("emptied room still registered")
	}
	if sess.Room() != nil {
		t.Errorf("session room pointer not cleared")
	}

	// Entering the same name again creates a fresh room.
	fresh, err := rr.Enter(sess, "lobby")
	if err != nil {
		t.Fatalf("re-Enter: %v", err)
	}
	if fresh == left {
		t.Errorf("re-Enter returned the deleted room instance")
	}
}

func TestExitKeepsOccupiedRoom(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	alice, _ := memberSession(1, "alice", false)
	bob, _ := memberSession(2, "bob", false)

	if _, err := rr.Enter(alice, "lobby"); err != nil {
		t.Fatalf("Enter alice: %v", err)
	}
	if _, err := rr.Enter(bob, "lobby"); err != nil {
		t.Fatalf("Enter bob: %v", err)
	}

	if _, emptied := rr.Exit(alice); emptied {
		t.Fatalf("Exit: room emptied with bob still in it")
	}
	if rr.Get("lobby") == nil {
		t.Errorf("occupied room deleted")
	}
}

func TestExitWithoutRoom(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	sess, _ := memberSession(1, "alice", false)

	if left, _ := rr.Exit(sess); left != nil {
		t.Fatalf("Exit without room = %v, want nil", left)
	}
}

func TestCloseDisplacesMembers(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	alice, aliceConn := memberSession(1, "alice", false)
	bob, _ := memberSession(2, "bob", false)
	if _, err := rr.Enter(alice, "lobby"); err != nil {
		t.Fatalf("Enter alice: %v", err)
	}
	if _, err := rr.Enter(bob, "lobby"); err != nil {
		t.Fatalf("Enter bob: %v", err)
	}

	if err := rr.Close("lobby"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rr.Get("lobby") != nil {
		t.Errorf("closed room still registered")
	}
	if alice.Room() != nil || bob.Room() != nil {
		t.Errorf("displaced sessions still bound to closed room")
	}
	if !contains(aliceConn.Sent(), "INFO:A sala 'lobby' foi encerrada pelo administrador") {
		t.Errorf("alice missing close notice, got %v", aliceConn.Sent())
	}

	// Displaced sessions are free to enter another room.
	if _, err := rr.Enter(alice, "games"); err != nil {
		t.Errorf("Enter after close: %v", err)
	}

	if err := rr.Close("ghost"); err != model.ErrRoomNotFound {
		t.Errorf("Close absent room = %v, want ErrRoomNotFound", err)
	}
}

func TestKick(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	alice, _ := memberSession(1, "alice", false)
	bob, bobConn := memberSession(2, "bob", false)
	if _, err := rr.Enter(alice, "lobby"); err != nil {
		t.Fatalf("Enter alice: %v", err)
	}
	if _, err := rr.Enter(bob, "lobby"); err != nil {
		t.Fatalf("Enter bob: %v", err)
	}
	room := rr.Get("lobby")

	target, err := rr.Kick(room, "bob")
	if err != nil {
		t.Fatalf("Kick: %v", err)
	}
	if target != bob {
		t.Fatalf("Kick returned %v, want bob", target)
	}
	if bob.Room() != nil {
		t.Errorf("kicked session still bound to room")
	}
	if !contains(bobConn.Sent(), "INFO:Você foi expulso da sala 'lobby' por um administrador") {
		t.Errorf("bob missing kick notice, got %v", bobConn.Sent())
	}

	// A kicked user can come back.
	if _, err := rr.Enter(bob, "lobby"); err != nil {
		t.Errorf("Enter after kick: %v", err)
	}

	if _, err := rr.Kick(room, "ghost"); err != model.ErrUserNotInRoom {
		t.Errorf("Kick absent user = %v, want ErrUserNotInRoom", err)
	}
}

func TestKickLastMemberDeletesRoom(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	bob, _ := memberSession(1, "bob", false)
	if _, err := rr.Enter(bob, "lobby"); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	room := rr.Get("lobby")

	if _, err := rr.Kick(room, "bob"); err != nil {
		t.Fatalf("Kick: %v", err)
	}
	if rr.Get("lobby") != nil {
		t.Errorf("emptied room still registered after kick")
	}

	// Kicking against the stale room handle now fails.
	if _, err := rr.Kick(room, "bob"); err != model.ErrRoomNotFound {
		t.Errorf("Kick on deleted room = %v, want ErrRoomNotFound", err)
	}
}

func TestListSortedByName(t *testing.T) {
	rr := NewRoomRegistry(true, NewMetrics())
	for _, name := range []string{"zeta", "alpha", "lobby"} {
		if err := rr.Create(name); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}
	sess, _ := memberSession(1, "alice", false)
	if _, err := rr.Enter(sess, "lobby"); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	got := rr.List()
	want := []protocol.RoomInfo{
		{Name: "alpha", Count: 0},
		{Name: "lobby", Count: 1},
		{Name: "zeta", Count: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}
