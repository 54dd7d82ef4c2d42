package usecase

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strings"
)

const roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// MinRoomCodeLength is the initial generated code length
	MinRoomCodeLength = 6

	// MaxRoomCodeLength caps code growth after repeated collisions
	MaxRoomCodeLength = 8

	// maxAllocAttempts bounds allocation before giving up
	maxAllocAttempts = 10
)

// ErrCodesExhausted is returned when no free code was found within the
// attempt budget
var ErrCodesExhausted = errors.New("failed to allocate a unique room code")

// roomCodeRegex matches normalized room codes: 6-8 uppercase alphanumerics
var roomCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)

// ExistenceCheck reports whether a room code is already taken
type ExistenceCheck func(ctx context.Context, code string) (bool, error)

// NormalizeRoomCode uppercases and trims a caller-supplied room code.
// Codes are case-insensitive externally and stored normalized.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidRoomCode validates a normalized room code
func IsValidRoomCode(code string) bool {
	return roomCodeRegex.MatchString(code)
}

// GenerateRoomCode builds a random code of the given length, clamped
// to the 6-8 character range
func GenerateRoomCode(length int) string {
	if length < MinRoomCodeLength {
		length = MinRoomCodeLength
	}
	if length > MaxRoomCodeLength {
		length = MaxRoomCodeLength
	}

	code := make([]byte, length)
	for i := range code {
		code[i] = roomCodeCharset[rand.Intn(len(roomCodeCharset))]
	}
	return string(code)
}

// AllocateRoomCode generates codes until one passes the existence
// check. Longer codes are tried after repeated collisions; when every
// attempt collides the allocator gives up with ErrCodesExhausted.
func AllocateRoomCode(ctx context.Context, exists ExistenceCheck) (string, error) {
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		code := GenerateRoomCode(MinRoomCodeLength + attempt/3)

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodesExhausted
}
