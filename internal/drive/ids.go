package drive

import "github.com/google/uuid"

// NextID returns a fresh process-unique entity identifier. IDs are never
// reused within a session, and successive calls within the same instant
// do not collide.
func NextID() string {
	return uuid.NewString()
}
