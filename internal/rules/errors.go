package rules

import "errors"

var (
	// ErrMalformedItems is returned when a stored items value is neither null, an array nor an object.
	ErrMalformedItems = errors.New("malformed order items")
	// ErrTableNotFound is returned when a table id is missing from its map.
	ErrTableNotFound = errors.New("table not found in map")
)
