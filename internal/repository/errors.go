// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow handlers to
// distinguish failure scenarios: ErrForbidden indicates that the
// current user is not authorized to touch a resource owned by
// someone else, while ErrSlotInUse signals that a slot cannot be
// deleted because a non-cancelled booking still references it.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrServiceNotFound is returned when a service id does not resolve
// (or does not belong to the requesting provider).
var ErrServiceNotFound = errors.New("service not found")

// ErrSlotNotFound is returned when a time slot id does not resolve.
var ErrSlotNotFound = errors.New("slot not found")

// ErrSlotInUse is returned when deleting a slot that is still
// referenced by a pending or confirmed booking.  Handlers translate
// this into 409.
var ErrSlotInUse = errors.New("slot has an active booking")
