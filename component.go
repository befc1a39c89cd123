package spoke

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"

	"github.com/oliverbestmann/spoke/internal/store"
)

// StorageKind selects the backend that holds the values of a component type.
type StorageKind uint8

const (
	// StorageTable stores values densely. Use it for components most entities have.
	StorageTable StorageKind = iota

	// StorageSparse stores values in a sparse set. Use it for rare components.
	StorageSparse
)

func (s StorageKind) String() string {
	switch s {
	case StorageTable:
		return "Table"
	case StorageSparse:
		return "Sparse"
	default:
		return fmt.Sprintf("StorageKind(%d)", uint8(s))
	}
}

type isComponentMarker struct{}

// ErasedComponent is implemented by every component type by embedding
// either Component or SparseComponent.
type ErasedComponent interface {
	ComponentType() *ComponentType
	isComponent(isComponentMarker)
}

type IsComponent[C any] interface {
	ErasedComponent
	IsComponent(C)
}

// Component marks a type as a component stored in a table:
//
//	type Position struct {
//		spoke.Component[Position]
//		X, Y float64
//	}
type Component[C IsComponent[C]] struct{}

func (Component[C]) IsComponent(C) {}

func (Component[C]) isComponent(isComponentMarker) {}

func (Component[C]) ComponentType() *ComponentType {
	return componentTypeOf[C](StorageTable)
}

// SparseComponent marks a type as a component stored in a sparse set.
type SparseComponent[C IsComponent[C]] struct{}

func (SparseComponent[C]) IsComponent(C) {}

func (SparseComponent[C]) isComponent(isComponentMarker) {}

func (SparseComponent[C]) ComponentType() *ComponentType {
	return componentTypeOf[C](StorageSparse)
}

type ComponentTypeId uint16

// ComponentType describes a registered component type. There is exactly
// one ComponentType instance per Go type.
type ComponentType struct {
	Id      ComponentTypeId
	Name    string
	Type    reflect.Type
	Storage StorageKind

	makeColumn func() store.Column
}

func (c *ComponentType) String() string {
	return c.Name
}

// ComponentTypeOf returns the ComponentType of C, registering it on first use.
func ComponentTypeOf[C IsComponent[C]]() *ComponentType {
	var zeroValue C

	//goland:noinspection GoDfaNilDereference
	return zeroValue.ComponentType()
}

var componentTypes atomic.Pointer[map[reflect.Type]*ComponentType]

func init() {
	componentTypes.Store(&map[reflect.Type]*ComponentType{})
}

func componentTypeOf[C IsComponent[C]](storage StorageKind) *ComponentType {
	reflectType := reflect.TypeFor[C]()

	if cached, ok := (*componentTypes.Load())[reflectType]; ok {
		return cached
	}

	for {
		previousTypes := componentTypes.Load()
		if cached, ok := (*previousTypes)[reflectType]; ok {
			return cached
		}

		newType := &ComponentType{
			Id:      ComponentTypeId(len(*previousTypes) + 1),
			Name:    reflectType.String(),
			Type:    reflectType,
			Storage: storage,
		}

		switch storage {
		case StorageSparse:
			newType.makeColumn = func() store.Column { return store.NewSparse[C]() }
		default:
			newType.makeColumn = func() store.Column { return store.NewTable[C]() }
		}

		newTypes := maps.Clone(*previousTypes)
		newTypes[reflectType] = newType

		if componentTypes.CompareAndSwap(previousTypes, &newTypes) {
			slog.Debug(
				"New component type registered",
				slog.String("name", newType.Name),
				slog.Int("id", int(newType.Id)),
				slog.String("storage", storage.String()),
			)

			return newType
		}
	}
}
