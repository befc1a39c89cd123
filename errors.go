package spoke

import (
	"errors"

	"github.com/oliverbestmann/spoke/internal/store"
)

var (
	// ErrDuplicateInsert is returned when inserting a component into an entity
	// that already has one of the same type. Use Replace to overwrite it.
	ErrDuplicateInsert = store.ErrDuplicateInsert

	// ErrMissingComponent is returned when accessing or removing a component
	// that the entity does not have.
	ErrMissingComponent = store.ErrMissingComponent

	// ErrInvalidEntity is returned when an EntityId is not known to the entity allocator.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrAccessDenied is returned when a system accesses a component type
	// it did not declare.
	ErrAccessDenied = errors.New("access not declared by system")
)
