package store

import (
	"log/slog"
	"strconv"
)

// EntityId identifies an entity. Stores use it as an opaque lookup key only.
type EntityId uint32

func (e EntityId) String() string {
	return strconv.Itoa(int(e))
}

func (e EntityId) LogValue() slog.Value {
	return slog.StringValue(e.String())
}
