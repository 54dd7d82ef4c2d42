package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/andikafarhan/coretan/internal/domain"
)

func TestJoinRequiresRoomCode(t *testing.T) {
	r, _ := newTestRouter(newFakeStore())
	r.Connect("conn-1")

	err := r.Join(context.Background(), "conn-1", domain.JoinRoomPayload{RoomCode: "   "})
	if err != ErrRoomCodeRequired {
		t.Errorf("Expected ErrRoomCodeRequired, got %v", err)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	r, cap := newTestRouter(newFakeStore())
	r.Connect("conn-1")

	err := r.Join(context.Background(), "conn-1", domain.JoinRoomPayload{RoomCode: "NOSUCH"})
	if err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	if len(cap.all()) != 0 {
		t.Error("Expected no deliveries for a rejected join")
	}
	if r.index.Size("NOSUCH") != 0 {
		t.Error("Expected no membership for a rejected join")
	}
}

func TestJoinSendsRoomState(t *testing.T) {
	fs := newFakeStore("ROOM01")
	fs.rooms["ROOM01"].DrawingLog = []domain.DrawingCommand{
		domain.NewStroke([]domain.Point{{X: 1, Y: 1}}, "#FF6B6B", 2, "earlier-user"),
	}
	r, cap := newTestRouter(fs)

	r.Connect("alice")
	err := r.Join(context.Background(), "alice", domain.JoinRoomPayload{
		RoomCode: "room01", UserID: "u-alice", UserName: "Alice",
	})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	env, ok := cap.lastTo("alice")
	if !ok || env.Type != domain.EventRoomJoined {
		t.Fatalf("Expected room-joined to the joiner, got %v (%s)", ok, env.Type)
	}

	var p domain.RoomJoinedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if p.RoomCode != "ROOM01" {
		t.Errorf("Expected normalized room code ROOM01, got %s", p.RoomCode)
	}
	if p.UserID != "u-alice" || p.UserName != "Alice" {
		t.Errorf("Expected supplied identity echoed back, got %s/%s", p.UserID, p.UserName)
	}
	if p.UserColor == "" {
		t.Error("Expected an assigned cursor color")
	}
	if p.ActiveUsers != 1 {
		t.Errorf("Expected 1 active user, got %d", p.ActiveUsers)
	}
	if len(p.DrawingLog) != 1 {
		t.Errorf("Expected the existing drawing log in the response, got %d commands", len(p.DrawingLog))
	}

	if got := fs.activeUsers("ROOM01"); got != 1 {
		t.Errorf("Expected persisted active count 1, got %d", got)
	}
}

func TestJoinAnonymousDefaults(t *testing.T) {
	r, cap := newTestRouter(newFakeStore("ROOM01"))
	r.Connect("conn-9")

	if err := r.Join(context.Background(), "conn-9", domain.JoinRoomPayload{RoomCode: "ROOM01"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	env, _ := cap.lastTo("conn-9")
	var p domain.RoomJoinedPayload
	json.Unmarshal(env.Payload, &p)
	if p.UserID != "conn-9" {
		t.Errorf("Expected userId to fall back to the connection ID, got %s", p.UserID)
	}
	if p.UserName != domain.AnonymousUserName {
		t.Errorf("Expected name '%s', got '%s'", domain.AnonymousUserName, p.UserName)
	}
}

func TestJoinNotifiesOthers(t *testing.T) {
	r, cap := newTestRouter(newFakeStore("ROOM01"))
	join(t, r, "alice", "ROOM01")
	cap.reset()

	join(t, r, "bob", "ROOM01")

	env, ok := cap.lastTo("alice")
	if !ok || env.Type != domain.EventUserJoined {
		t.Fatalf("Expected user-joined to alice, got %v (%s)", ok, env.Type)
	}
	var p domain.UserJoinedPayload
	json.Unmarshal(env.Payload, &p)
	if p.UserName != "bob" {
		t.Errorf("Expected joiner name 'bob', got '%s'", p.UserName)
	}
	if p.ActiveUsers != 2 {
		t.Errorf("Expected active count 2, got %d", p.ActiveUsers)
	}
}

func TestJoinRoomSwitch(t *testing.T) {
	fs := newFakeStore("ROOM01", "ROOM02")
	r, cap := newTestRouter(fs)
	join(t, r, "alice", "ROOM01")
	join(t, r, "bob", "ROOM01")
	cap.reset()

	join(t, r, "bob", "ROOM02")

	// Old room saw the departure
	env, ok := cap.lastTo("alice")
	if !ok || env.Type != domain.EventUserLeft {
		t.Fatalf("Expected user-left in the old room, got %v (%s)", ok, env.Type)
	}
	var left domain.UserLeftPayload
	json.Unmarshal(env.Payload, &left)
	if left.ActiveUsers != 1 {
		t.Errorf("Expected old room count 1, got %d", left.ActiveUsers)
	}

	// Membership and persisted counts moved over
	if r.index.Size("ROOM01") != 1 || r.index.Size("ROOM02") != 1 {
		t.Errorf("Expected membership 1/1, got %d/%d", r.index.Size("ROOM01"), r.index.Size("ROOM02"))
	}
	if fs.activeUsers("ROOM01") != 1 || fs.activeUsers("ROOM02") != 1 {
		t.Errorf("Expected persisted counts 1/1, got %d/%d", fs.activeUsers("ROOM01"), fs.activeUsers("ROOM02"))
	}

	// Events from bob now reach the new room only
	cap.reset()
	if err := r.CursorMove("bob", domain.CursorMovePayload{X: 1, Y: 1}); err != nil {
		t.Fatalf("CursorMove failed: %v", err)
	}
	if _, ok := cap.lastTo("alice"); ok {
		t.Error("Expected no cursor traffic into the old room after the switch")
	}
}

func TestJoinUnknownRoomKeepsCurrentRoom(t *testing.T) {
	fs := newFakeStore("ROOM01")
	r, cap := newTestRouter(fs)
	join(t, r, "alice", "ROOM01")
	cap.reset()

	err := r.Join(context.Background(), "alice", domain.JoinRoomPayload{RoomCode: "NOSUCH"})
	if err != ErrRoomNotFound {
		t.Fatalf("Expected ErrRoomNotFound, got %v", err)
	}

	// The failed join must not have torn down the existing membership
	if r.index.Size("ROOM01") != 1 {
		t.Error("Expected alice still in ROOM01 after a rejected switch")
	}
	a, ok := r.registry.Lookup("alice")
	if !ok || a.RoomCode != "ROOM01" {
		t.Errorf("Expected assignment in ROOM01, got %+v (ok=%v)", a, ok)
	}
	if len(cap.all()) != 0 {
		t.Error("Expected no deliveries for a rejected switch")
	}
}

func TestJoinPersistFailureRollsBack(t *testing.T) {
	fs := newFakeStore("ROOM01")
	r, cap := newTestRouter(fs)
	r.Connect("alice")

	fs.setUsersErr = errors.New("locked")
	err := r.Join(context.Background(), "alice", domain.JoinRoomPayload{RoomCode: "ROOM01"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}

	if r.index.Size("ROOM01") != 0 {
		t.Error("Expected membership rolled back after persist failure")
	}
	if _, ok := r.registry.Lookup("alice"); ok {
		t.Error("Expected registry assignment rolled back after persist failure")
	}
	if len(cap.all()) != 0 {
		t.Error("Expected no deliveries for a failed join")
	}
}

func TestJoinTimeout(t *testing.T) {
	fs := newFakeStore("ROOM01")
	fs.loadDelay = 200 * time.Millisecond

	cap := &captureDispatcher{}
	r := NewRouter(NewRegistry(), NewIndex(), fs, cap, 20*time.Millisecond)
	r.Connect("alice")

	err := r.Join(context.Background(), "alice", domain.JoinRoomPayload{RoomCode: "ROOM01"})
	if !errors.Is(err, ErrJoinTimeout) {
		t.Errorf("Expected ErrJoinTimeout, got %v", err)
	}
	if _, ok := r.registry.Lookup("alice"); ok {
		t.Error("Expected no assignment after a timed out join")
	}
}

func TestDisconnectNeverJoined(t *testing.T) {
	fs := newFakeStore("ROOM01")
	r, cap := newTestRouter(fs)
	r.Connect("ghost")

	r.Disconnect(context.Background(), "ghost")

	if len(cap.all()) != 0 {
		t.Error("Expected no deliveries for an unjoined disconnect")
	}
	if fs.setUsersCalls != 0 {
		t.Error("Expected no store writes for an unjoined disconnect")
	}
	// Events after disconnect are rejected
	if err := r.CursorMove("ghost", domain.CursorMovePayload{}); err != ErrNotJoined {
		t.Errorf("Expected ErrNotJoined after disconnect, got %v", err)
	}
}

func TestDisconnectNotifiesRoom(t *testing.T) {
	fs := newFakeStore("ROOM01")
	r, cap := newTestRouter(fs)
	join(t, r, "alice", "ROOM01")
	join(t, r, "bob", "ROOM01")
	cap.reset()

	r.Disconnect(context.Background(), "bob")

	env, ok := cap.lastTo("alice")
	if !ok || env.Type != domain.EventUserLeft {
		t.Fatalf("Expected user-left to alice, got %v (%s)", ok, env.Type)
	}
	var p domain.UserLeftPayload
	json.Unmarshal(env.Payload, &p)
	if p.UserName != "bob" {
		t.Errorf("Expected departed name 'bob', got '%s'", p.UserName)
	}
	if p.ActiveUsers != 1 {
		t.Errorf("Expected active count 1, got %d", p.ActiveUsers)
	}
	if got := fs.activeUsers("ROOM01"); got != 1 {
		t.Errorf("Expected persisted count 1, got %d", got)
	}
}

func TestLastDisconnectEmptiesRoom(t *testing.T) {
	fs := newFakeStore("ROOM01")
	r, cap := newTestRouter(fs)
	join(t, r, "alice", "ROOM01")
	cap.reset()

	r.Disconnect(context.Background(), "alice")

	if len(cap.all()) != 0 {
		t.Error("Expected no user-left delivery for an emptied room")
	}
	if got := fs.activeUsers("ROOM01"); got != 0 {
		t.Errorf("Expected persisted count 0, got %d", got)
	}
	if r.index.Size("ROOM01") != 0 {
		t.Error("Expected the room dropped from the index")
	}
}
