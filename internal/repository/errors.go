// Package repository provides MySQL access to events, zones, seats, hosts
// and guests, and commits allocation results.
//
// The sentinel errors below let higher layers such as handlers tell
// failure scenarios apart.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup yields no rows.
// Handlers should translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrZoneNotFound is returned when a zone does not exist or belongs to a
// different event.
var ErrZoneNotFound = errors.New("zone not found")

// ErrConflict is returned when a commit finds a seat that is no longer
// free or a guest that already holds a seat.  The whole commit has been
// rolled back.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
