package domain

import "encoding/json"

// EventType defines the type of event crossing the websocket boundary
type EventType string

// Inbound events (client -> server)
const (
	EventJoinRoom    EventType = "join-room"
	EventCursorMove  EventType = "cursor-move"
	EventDrawStart   EventType = "draw-start"
	EventDrawMove    EventType = "draw-move"
	EventDrawEnd     EventType = "draw-end"
	EventClearCanvas EventType = "clear-canvas"
)

// Outbound events (server -> client)
const (
	EventRoomJoined    EventType = "room-joined"
	EventUserJoined    EventType = "user-joined"
	EventUserLeft      EventType = "user-left"
	EventCursorUpdate  EventType = "cursor-update"
	EventCanvasCleared EventType = "canvas-cleared"
	EventError         EventType = "error"
	// draw-start, draw-move and draw-end are echoed under their inbound
	// names, enriched with the sender's resolved identity
)

// Envelope is the wire framing for every event in both directions
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ==== Inbound payloads ====

// JoinRoomPayload asks to join an existing room
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// CursorMovePayload reports the sender's cursor position
type CursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawStartPayload starts an in-progress stroke
type DrawStartPayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DrawMovePayload continues an in-progress stroke
type DrawMovePayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PrevX       float64 `json:"prevX"`
	PrevY       float64 `json:"prevY"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DrawEndPayload carries the full path of a completed stroke. Only
// this event ever reaches the durable log.
type DrawEndPayload struct {
	Path        []Point `json:"path"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// ==== Outbound payloads ====

// RoomJoinedPayload is sent to the joiner with the full current state
type RoomJoinedPayload struct {
	RoomCode    string           `json:"roomCode"`
	UserID      string           `json:"userId"`
	UserName    string           `json:"userName"`
	UserColor   string           `json:"userColor"`
	ActiveUsers int              `json:"activeUsers"`
	DrawingLog  []DrawingCommand `json:"drawingLog"`
}

// UserJoinedPayload notifies existing members about a new joiner
type UserJoinedPayload struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	Color       string `json:"color"`
	ActiveUsers int    `json:"activeUsers"`
}

// UserLeftPayload notifies remaining members about a departure
type UserLeftPayload struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	ActiveUsers int    `json:"activeUsers"`
}

// CursorUpdatePayload relays a cursor position with resolved identity
type CursorUpdatePayload struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
}

// DrawStartBroadcast relays a stroke start with resolved identity
type DrawStartBroadcast struct {
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DrawMoveBroadcast relays a stroke segment with resolved identity
type DrawMoveBroadcast struct {
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PrevX       float64 `json:"prevX"`
	PrevY       float64 `json:"prevY"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DrawEndBroadcast relays a completed stroke with resolved identity
type DrawEndBroadcast struct {
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	Path        []Point `json:"path"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// CanvasClearedPayload notifies every member, sender included
type CanvasClearedPayload struct {
	ClearedBy string `json:"clearedBy"`
}

// ErrorPayload reports a rejected event back to its sender
type ErrorPayload struct {
	Message string `json:"message"`
}
