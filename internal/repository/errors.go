package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQL, NoSQL, etc.)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (email, join code, invite code, session code, group membership).
var ErrDuplicate = errors.New("record already exists")

// ErrOrderMismatch is returned by reorder operations when the supplied ids
// are not exactly the set of rows owned by the event.
var ErrOrderMismatch = errors.New("ordering does not match the event's records")
