package domain

import "time"

// CommandKind identifies the type of a drawing command in a room's log
type CommandKind string

const (
	CommandStroke CommandKind = "stroke"
	CommandClear  CommandKind = "clear"
)

// Point is a single canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawingCommand is one immutable entry in a room's drawing log.
// A stroke carries the full path of a completed line; a clear carries
// only its timestamp and resets everything before it on replay.
type DrawingCommand struct {
	Kind        CommandKind `json:"kind"`
	Path        []Point     `json:"path,omitempty"`
	Color       string      `json:"color,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	UserID      string      `json:"userId,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewStroke creates a stroke command for a completed path
func NewStroke(path []Point, color string, strokeWidth float64, userID string) DrawingCommand {
	return DrawingCommand{
		Kind:        CommandStroke,
		Path:        path,
		Color:       color,
		StrokeWidth: strokeWidth,
		UserID:      userID,
		Timestamp:   time.Now(),
	}
}

// NewClear creates a clear command. When appended it replaces the
// entire prior log, so replay never sees strokes from before it.
func NewClear() DrawingCommand {
	return DrawingCommand{
		Kind:      CommandClear,
		Timestamp: time.Now(),
	}
}
