package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes.
// A draw-end payload carries a full stroke path, so this is generous.
const MaxMessageSize = 64 * 1024

// ==== Identity Constants ====

// AnonymousUserName is the display name for users who don't supply one
const AnonymousUserName = "Anonymous"

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5

	// DefaultEventsPerSecond caps inbound events per connection; cursor
	// traffic is chatty so the ceiling is high
	DefaultEventsPerSecond = 120

	// DefaultEventBurst is the per-connection event burst allowance
	DefaultEventBurst = 240
)

// ==== Timing Constants ====

const (
	// DefaultJoinTimeout bounds how long a join waits on the durable
	// store before failing back to the caller
	DefaultJoinTimeout = 5 * time.Second

	// DefaultRoomIdleTTL is how long an inactive room survives before
	// the cleanup sweep deletes it
	DefaultRoomIdleTTL = 24 * time.Hour

	// DefaultCleanupInterval is how often the idle-room sweep runs
	DefaultCleanupInterval = 1 * time.Hour
)
