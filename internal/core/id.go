package core

import "github.com/google/uuid"

// NewID returns a fresh globally unique record id. UUIDs rather than
// timestamp strings: batch inserts within the same clock tick must not
// collide.
func NewID() string {
	return uuid.NewString()
}
