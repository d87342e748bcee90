package storage

import "errors"

// ErrNotFound is returned when a lookup that expects a row finds none.
var ErrNotFound = errors.New("row not found")

// ErrUnfilteredDelete is returned when Delete is called without filters.
var ErrUnfilteredDelete = errors.New("delete requires at least one filter")

// ErrUnfilteredUpdate is returned when Update is called without filters.
var ErrUnfilteredUpdate = errors.New("update requires at least one filter")

// UniqueViolation is the Postgres SQLSTATE of a unique constraint violation.
const UniqueViolation = "23505"
