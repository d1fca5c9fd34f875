// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. ErrForbidden indicates that the caller does not own the
// record, ErrConflict signals that a write cannot proceed because of
// existing state (for example a confirmation code that is already taken).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrBookingNotFound is returned when no booking matches the id or code.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEventNotFound is returned when no organizer event matches the id.
var ErrEventNotFound = errors.New("event not found")

// ErrOrganizerNotFound is returned when the session has no organizer yet.
var ErrOrganizerNotFound = errors.New("organizer not found")
