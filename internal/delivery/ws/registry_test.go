package ws

import (
	"testing"

	"github.com/andikafarhan/coretan/internal/domain"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	// Unknown connection
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Expected lookup of unknown connection to fail")
	}

	// Registered but not joined
	r.Register("conn-1")
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Expected lookup of unjoined connection to fail")
	}

	// Joined
	r.Assign("conn-1", Assignment{
		RoomCode: "ROOM01",
		Identity: domain.Identity{UserID: "u-1", UserName: "Alice", Color: "#FF6B6B"},
	})
	a, ok := r.Lookup("conn-1")
	if !ok {
		t.Fatal("Expected lookup to succeed after assignment")
	}
	if a.RoomCode != "ROOM01" || a.Identity.UserName != "Alice" {
		t.Errorf("Unexpected assignment: %+v", a)
	}

	// Cleared back to unjoined
	r.Clear("conn-1")
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Expected lookup to fail after clear")
	}

	// Removed entirely
	r.Remove("conn-1")
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Expected lookup to fail after removal")
	}
}

func TestRegistryReassignSwitchesRoom(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1")
	r.Assign("conn-1", Assignment{RoomCode: "ROOM01", Identity: domain.Identity{UserID: "u-1"}})
	r.Assign("conn-1", Assignment{RoomCode: "ROOM02", Identity: domain.Identity{UserID: "u-1"}})

	a, ok := r.Lookup("conn-1")
	if !ok || a.RoomCode != "ROOM02" {
		t.Errorf("Expected assignment in ROOM02, got %+v (ok=%v)", a, ok)
	}
}

func TestRegistryClearUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Clear("never-registered")

	// Clear must not resurrect a removed connection
	if _, ok := r.Lookup("never-registered"); ok {
		t.Error("Expected clear of unknown connection to create nothing")
	}
}
