package drive

import (
	"errors"
	"fmt"
)

// ErrNoChange marks a rename that would not change anything (empty or
// identical name). Callers treat it as a cancelled edit, not a failure.
var ErrNoChange = errors.New("no change")

// CollisionError reports a case-insensitive sibling name clash.
type CollisionError struct {
	Name     string
	ParentID *string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("name %q already exists in this folder", e.Name)
}

// CycleError reports a move that would make a folder its own ancestor.
type CycleError struct {
	ID     string
	Target string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot move %s into its own subtree (%s)", e.ID, e.Target)
}

// NotFoundError reports a reference to an entity that no longer exists.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %s not found", e.ID)
}

// IsCollision reports whether err is a CollisionError.
func IsCollision(err error) bool {
	var ce *CollisionError
	return errors.As(err, &ce)
}

// IsCycle reports whether err is a CycleError.
func IsCycle(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
