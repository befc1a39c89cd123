package store

import "errors"

var (
	// ErrDuplicateInsert is returned when inserting a component into a store
	// that already holds a value for the entity.
	ErrDuplicateInsert = errors.New("component already exists")

	// ErrMissingComponent is returned when accessing or removing a component
	// the entity does not have.
	ErrMissingComponent = errors.New("component does not exist")
)
