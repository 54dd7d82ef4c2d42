package ws

import (
	"context"
	"errors"
	"log"

	"github.com/andikafarhan/coretan/internal/domain"
	"github.com/andikafarhan/coretan/internal/store"
	"github.com/andikafarhan/coretan/internal/usecase"
)

// Join moves a connection into a room. The room must already exist in
// the durable store; on success the connection gets a fresh identity
// and color, the membership index and persisted active count are
// updated, the joiner receives the full room state and the rest of the
// room a user-joined notice. A connection already in a different room
// is first removed from it, with user-left notices, before the new
// join proceeds.
func (r *Router) Join(ctx context.Context, connID string, p domain.JoinRoomPayload) error {
	code := usecase.NormalizeRoomCode(p.RoomCode)
	if code == "" {
		return ErrRoomCodeRequired
	}

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	// A rejected join must leave all state untouched, so the room is
	// checked before any leave-cleanup happens
	exists, err := r.store.RoomExists(storeCtx, code)
	if err != nil {
		return storeErr(err)
	}
	if !exists {
		return ErrRoomNotFound
	}

	// Leave-on-rejoin: clean up the old room before touching the new
	// one. The two room locks are never held together.
	if prev, ok := r.registry.Lookup(connID); ok && prev.RoomCode != code {
		r.leaveRoom(ctx, connID, prev)
		r.registry.Clear(connID)
	}

	lock := r.roomLock(code)
	lock.Lock()
	defer lock.Unlock()

	state, err := r.store.LoadRoom(storeCtx, code)
	if errors.Is(err, store.ErrRoomNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return storeErr(err)
	}

	identity := domain.NewIdentity(p.UserID, p.UserName, connID)
	r.registry.Assign(connID, Assignment{RoomCode: code, Identity: identity})
	r.index.Add(code, connID)
	count := r.index.Size(code)

	if err := r.store.SetActiveUsers(storeCtx, code, count); err != nil {
		// Partial state must never be observable: undo before failing
		r.index.Remove(code, connID)
		r.registry.Clear(connID)
		return storeErr(err)
	}

	outs := make([]Outbound, 0, 2)
	outs = append(outs, Outbound{
		Targets: []string{connID},
		Data: encodeEvent(domain.EventRoomJoined, domain.RoomJoinedPayload{
			RoomCode:    code,
			UserID:      identity.UserID,
			UserName:    identity.UserName,
			UserColor:   identity.Color,
			ActiveUsers: count,
			DrawingLog:  state.DrawingLog,
		}),
	})

	if others := r.othersInRoom(code, connID); len(others) > 0 {
		outs = append(outs, Outbound{
			Targets: others,
			Data: encodeEvent(domain.EventUserJoined, domain.UserJoinedPayload{
				UserID:      identity.UserID,
				UserName:    identity.UserName,
				Color:       identity.Color,
				ActiveUsers: count,
			}),
		})
	}

	r.dispatch.Deliver(outs)
	log.Printf("User %s (%s) joined room %s (%d active)", identity.UserName, identity.UserID, code, count)
	return nil
}

// Disconnect tears down a connection. If it was joined, its room's
// membership and persisted count are updated and the remaining members
// notified. Disconnecting a connection that never joined is a no-op
// beyond dropping the registry entry.
func (r *Router) Disconnect(ctx context.Context, connID string) {
	a, ok := r.registry.Lookup(connID)
	if ok {
		r.leaveRoom(ctx, connID, a)
	}
	r.registry.Remove(connID)
}

// leaveRoom removes the connection from its room under the room lock,
// persists the recomputed count, and notifies the remaining members.
// Shared by disconnect and the room-switch path of Join.
func (r *Router) leaveRoom(ctx context.Context, connID string, a Assignment) {
	lock := r.roomLock(a.RoomCode)
	lock.Lock()
	defer lock.Unlock()

	r.index.Remove(a.RoomCode, connID)
	count := r.index.Size(a.RoomCode)

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	if err := r.store.SetActiveUsers(storeCtx, a.RoomCode, count); err != nil {
		log.Printf("leave: active count for room %s not persisted: %v", a.RoomCode, err)
	}

	targets := r.index.Members(a.RoomCode)
	if len(targets) == 0 {
		return
	}

	data := encodeEvent(domain.EventUserLeft, domain.UserLeftPayload{
		UserID:      a.Identity.UserID,
		UserName:    a.Identity.UserName,
		ActiveUsers: count,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
}
