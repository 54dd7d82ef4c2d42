package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/andikafarhan/coretan/internal/domain"
	"github.com/andikafarhan/coretan/internal/store"
)

var (
	// ErrRoomCodeRequired rejects a join with no room code
	ErrRoomCodeRequired = errors.New("room code is required")

	// ErrRoomNotFound rejects a join for a room the store doesn't know
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotJoined rejects events from connections with no room assignment
	ErrNotJoined = errors.New("not joined to any room")

	// ErrStoreUnavailable signals the durable store failed or refused
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrJoinTimeout signals the store didn't answer a join in time
	ErrJoinTimeout = errors.New("join timed out")

	// ErrInvalidPayload rejects malformed event payloads at the boundary
	ErrInvalidPayload = errors.New("invalid event payload")
)

// RoomStore is the narrow durable-store interface the router consumes
type RoomStore interface {
	RoomExists(ctx context.Context, code string) (bool, error)
	LoadRoom(ctx context.Context, code string) (*store.RoomState, error)
	AppendStroke(ctx context.Context, code string, cmd domain.DrawingCommand) error
	ResetLog(ctx context.Context, code string, clear domain.DrawingCommand) error
	SetActiveUsers(ctx context.Context, code string, count int) error
}

// Outbound is one routed event: encoded payload plus target connections
type Outbound struct {
	Targets []string
	Data    []byte
}

// Dispatcher delivers routed events to live connections. The Hub is
// the production dispatcher; tests substitute a capture.
type Dispatcher interface {
	Deliver(outs []Outbound)
}

// Router is the per-room state machine at the center of the sync
// engine. Events from different rooms are handled fully in parallel;
// all read-modify-write sequences against one room (membership, count,
// drawing log) run under that room's lock so they never interleave.
type Router struct {
	registry *Registry
	index    *Index
	store    RoomStore
	dispatch Dispatcher

	// bounds every store call made on the join/draw-end/clear paths
	storeTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRouter wires the router against its collaborators
func NewRouter(registry *Registry, index *Index, st RoomStore, dispatch Dispatcher, storeTimeout time.Duration) *Router {
	if storeTimeout <= 0 {
		storeTimeout = domain.DefaultJoinTimeout
	}
	return &Router{
		registry:     registry,
		index:        index,
		store:        st,
		dispatch:     dispatch,
		storeTimeout: storeTimeout,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Connect creates the empty registry entry for a fresh connection
func (r *Router) Connect(connID string) {
	r.registry.Register(connID)
}

// roomLock returns the mutex that linearizes mutations for one room.
// Locks are created lazily and kept for the process lifetime.
func (r *Router) roomLock(code string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[code]
	if !ok {
		l = &sync.Mutex{}
		r.locks[code] = l
	}
	return l
}

// CursorMove relays the sender's cursor position to everyone else in
// its room. Nothing is persisted and nothing blocks on the store.
func (r *Router) CursorMove(connID string, p domain.CursorMovePayload) error {
	a, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotJoined
	}

	targets := r.othersInRoom(a.RoomCode, connID)
	if len(targets) == 0 {
		return nil
	}

	data := encodeEvent(domain.EventCursorUpdate, domain.CursorUpdatePayload{
		UserID:   a.Identity.UserID,
		UserName: a.Identity.UserName,
		X:        p.X,
		Y:        p.Y,
		Color:    a.Identity.Color,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
	return nil
}

// DrawStart relays the start of an in-progress stroke; never persisted
func (r *Router) DrawStart(connID string, p domain.DrawStartPayload) error {
	a, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotJoined
	}

	targets := r.othersInRoom(a.RoomCode, connID)
	if len(targets) == 0 {
		return nil
	}

	data := encodeEvent(domain.EventDrawStart, domain.DrawStartBroadcast{
		UserID:      a.Identity.UserID,
		UserName:    a.Identity.UserName,
		X:           p.X,
		Y:           p.Y,
		Color:       p.Color,
		StrokeWidth: p.StrokeWidth,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
	return nil
}

// DrawMove relays one segment of an in-progress stroke; never persisted
func (r *Router) DrawMove(connID string, p domain.DrawMovePayload) error {
	a, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotJoined
	}

	targets := r.othersInRoom(a.RoomCode, connID)
	if len(targets) == 0 {
		return nil
	}

	data := encodeEvent(domain.EventDrawMove, domain.DrawMoveBroadcast{
		UserID:      a.Identity.UserID,
		UserName:    a.Identity.UserName,
		X:           p.X,
		Y:           p.Y,
		PrevX:       p.PrevX,
		PrevY:       p.PrevY,
		Color:       p.Color,
		StrokeWidth: p.StrokeWidth,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
	return nil
}

// DrawEnd appends the completed stroke to the room's durable log and
// relays it to everyone else. Appends happen under the room lock so
// concurrent strokes land in the log in acceptance order. A persist
// failure is a data-loss risk for future joiners: it is logged loudly,
// but the live broadcast still goes out so current members stay in sync.
func (r *Router) DrawEnd(ctx context.Context, connID string, p domain.DrawEndPayload) error {
	a, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotJoined
	}
	if len(p.Path) < 1 || p.StrokeWidth <= 0 {
		return ErrInvalidPayload
	}

	lock := r.roomLock(a.RoomCode)
	lock.Lock()
	defer lock.Unlock()

	cmd := domain.NewStroke(p.Path, p.Color, p.StrokeWidth, a.Identity.UserID)

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	if err := r.store.AppendStroke(storeCtx, a.RoomCode, cmd); err != nil {
		log.Printf("draw-end: stroke in room %s not persisted, replay will miss it: %v", a.RoomCode, err)
	}

	targets := r.othersInRoom(a.RoomCode, connID)
	if len(targets) == 0 {
		return nil
	}

	data := encodeEvent(domain.EventDrawEnd, domain.DrawEndBroadcast{
		UserID:      a.Identity.UserID,
		UserName:    a.Identity.UserName,
		Path:        p.Path,
		Color:       p.Color,
		StrokeWidth: p.StrokeWidth,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
	return nil
}

// ClearCanvas resets the room's durable log to a single clear command
// and notifies every member, the sender included, since the sender's
// canvas must reset too.
func (r *Router) ClearCanvas(ctx context.Context, connID string) error {
	a, ok := r.registry.Lookup(connID)
	if !ok {
		return ErrNotJoined
	}

	lock := r.roomLock(a.RoomCode)
	lock.Lock()
	defer lock.Unlock()

	clear := domain.NewClear()

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	if err := r.store.ResetLog(storeCtx, a.RoomCode, clear); err != nil {
		log.Printf("clear-canvas: log reset in room %s not persisted: %v", a.RoomCode, err)
	}

	targets := r.index.Members(a.RoomCode)
	if len(targets) == 0 {
		return nil
	}

	data := encodeEvent(domain.EventCanvasCleared, domain.CanvasClearedPayload{
		ClearedBy: a.Identity.UserName,
	})
	r.dispatch.Deliver([]Outbound{{Targets: targets, Data: data}})
	return nil
}

// othersInRoom resolves broadcast targets excluding the sender
func (r *Router) othersInRoom(roomCode, sender string) []string {
	members := r.index.Members(roomCode)
	targets := make([]string, 0, len(members))
	for _, id := range members {
		if id != sender {
			targets = append(targets, id)
		}
	}
	return targets
}

// encodeEvent frames a payload in the wire envelope
func encodeEvent(t domain.EventType, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(domain.Envelope{Type: t, Payload: raw})
	return data
}

// storeErr folds a failed store call into the error taxonomy
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrJoinTimeout
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
