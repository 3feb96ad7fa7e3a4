package entity

import "errors"

var (
	// ErrNoConnection is returned when the repository has no database handle.
	ErrNoConnection = errors.New("could not connect to database")
	// ErrNotFound indicates no live row matched the id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates the store rejected a duplicate name.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnknownColumn indicates data referenced a column outside the schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidID indicates a non-positive primary key.
	ErrInvalidID = errors.New("invalid ID")
)
