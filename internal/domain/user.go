package domain

import "math/rand"

// Identity is the per-connection user identity assigned at join time
type Identity struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

// CursorPalette is the fixed set of cursor colors assigned at join.
// Two users sharing a color is accepted; assignments are independent
// of what other members already have.
var CursorPalette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FECA57",
	"#FF9FF3",
	"#54A0FF",
	"#48DBFB",
}

// RandomColor picks a cursor color from the fixed palette
func RandomColor() string {
	return CursorPalette[rand.Intn(len(CursorPalette))]
}

// NewIdentity resolves the identity for a joining connection. An empty
// userID falls back to the connection ID, an empty name to "Anonymous".
func NewIdentity(userID, userName, connectionID string) Identity {
	if userID == "" {
		userID = connectionID
	}
	if userName == "" {
		userName = AnonymousUserName
	}
	return Identity{
		UserID:   userID,
		UserName: userName,
		Color:    RandomColor(),
	}
}
