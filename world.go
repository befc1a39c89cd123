package spoke

import (
	"fmt"
	"log/slog"

	"github.com/oliverbestmann/spoke/internal/change"
	"github.com/oliverbestmann/spoke/internal/set"
	"github.com/oliverbestmann/spoke/internal/store"
	"github.com/oliverbestmann/spoke/internal/tick"
)

type Tick = tick.Tick

type Window = tick.Window

type ChangeRecord = change.Record

// World holds the component stores and keeps track of the current tick.
//
// A World is not safe for concurrent use. The only exception is RunParallel, which
// runs systems concurrently that do not have conflicting component access.
type World struct {
	logger   *slog.Logger
	entities EntityAllocator
	stats    *TimingStats

	clock          tick.Clock
	lastChangeTick tick.Tick
	lastCheckTick  tick.Tick
	checkThreshold uint32

	columns map[*ComponentType]store.Column
	systems set.Set[*System]
}

// NewWorld creates a new empty world.
func NewWorld(opts ...Option) *World {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}

	if c.entities == nil {
		c.entities = &Entities{}
	}

	w := &World{
		logger:         c.logger,
		entities:       c.entities,
		clock:          tick.NewClock(c.startTick),
		lastChangeTick: c.startTick - 1,
		lastCheckTick:  c.startTick,
		checkThreshold: c.checkThreshold,
		columns:        map[*ComponentType]store.Column{},
	}

	if c.timingStats {
		stats := NewTimingStats()
		w.stats = &stats
	}

	return w
}

// Tick returns the tick of the current cycle.
func (w *World) Tick() Tick {
	return w.clock.Current()
}

// LastChangeTick returns the tick at which ClearTrackers was last called.
func (w *World) LastChangeTick() Tick {
	return w.lastChangeTick
}

// Window returns the window used by queries that run outside a system.
// It covers everything that happened since the last call to ClearTrackers.
func (w *World) Window() Window {
	return Window{LastRun: w.lastChangeTick, ThisRun: w.clock.Current()}
}

// TimingStats returns the collected timings, or nil if WithTimingStats was not set.
func (w *World) TimingStats() *TimingStats {
	return w.stats
}

// ClearTrackers finishes the current cycle. Everything that was added or changed
// up to now will not be reported by queries using Window anymore.
// No change record is modified, only the world's bookkeeping moves forward.
func (w *World) ClearTrackers() {
	w.lastChangeTick = w.clock.Current()
	w.advance()
}

// advance moves the clock to the next tick. Ticks are checked once the
// check threshold has passed since the previous check.
func (w *World) advance() {
	current := w.clock.Advance()

	if w.lastCheckTick.Since(current) >= w.checkThreshold {
		w.CheckChangeTicks()
	}
}

// CheckChangeTicks clamps all change ticks stored in the world, so that they
// are never older than tick.MaxChangeAge. This runs automatically from ClearTrackers
// whenever the check threshold has passed and usually does not need to be called
// directly. Returns the number of clamped ticks.
func (w *World) CheckChangeTicks() int {
	current := w.clock.Current()

	var clamped int
	for _, column := range w.columns {
		clamped += column.CheckTicks(current)
	}

	for system := range w.systems.Values() {
		if system.lastRun.Clamp(current) {
			clamped++
		}
	}

	if w.lastChangeTick.Clamp(current) {
		clamped++
	}

	w.lastCheckTick = current

	w.logger.Info("Change ticks checked",
		slog.Any("tick", current),
		slog.Int("clamped", clamped))

	return clamped
}

func (w *World) validateEntity(entityId EntityId) error {
	if !w.entities.Contains(entityId) {
		return fmt.Errorf("entity %s: %w", entityId, ErrInvalidEntity)
	}

	return nil
}

// column returns the column of the given type, creating it if needed.
func (w *World) column(ty *ComponentType) store.Column {
	column, ok := w.columns[ty]
	if !ok {
		column = ty.makeColumn()
		w.columns[ty] = column

		w.logger.Debug("Column created",
			slog.String("type", ty.Name),
			slog.String("storage", ty.Storage.String()))
	}

	return column
}

// Spawn creates a new entity holding the given components.
func (w *World) Spawn(components ...ErasedComponent) (EntityId, error) {
	if err := checkDuplicates(components); err != nil {
		return NoEntityId, err
	}

	entityId := w.entities.Reserve()
	if err := w.spawnReserved(entityId, components); err != nil {
		w.entities.Free(entityId)
		return NoEntityId, err
	}

	return entityId, nil
}

func (w *World) spawnReserved(entityId EntityId, components []ErasedComponent) error {
	w.entities.Activate(entityId)
	return w.Insert(entityId, components...)
}

func checkDuplicates(components []ErasedComponent) error {
	var seen set.Set[*ComponentType]
	for _, component := range components {
		ty := component.ComponentType()
		if !seen.Insert(ty) {
			return fmt.Errorf("component %s given twice: %w", ty, ErrDuplicateInsert)
		}
	}

	return nil
}

// Despawn removes the entity together with all of its components.
func (w *World) Despawn(entityId EntityId) error {
	if err := w.validateEntity(entityId); err != nil {
		return err
	}

	for _, column := range w.columns {
		if column.Contains(entityId) {
			if err := column.Remove(entityId); err != nil {
				panic(fmt.Sprintf("column lost entity %s during despawn: %s", entityId, err))
			}
		}
	}

	w.entities.Free(entityId)

	return nil
}

// Insert adds components to an existing entity. Components the entity already
// has are not overwritten, ErrDuplicateInsert is returned instead. Either all
// components are inserted or none of them.
func (w *World) Insert(entityId EntityId, components ...ErasedComponent) error {
	if err := w.validateEntity(entityId); err != nil {
		return err
	}

	if err := checkDuplicates(components); err != nil {
		return err
	}

	for _, component := range components {
		if ty := component.ComponentType(); w.HasType(entityId, ty) {
			return fmt.Errorf("insert %s into entity %s: %w", ty, entityId, ErrDuplicateInsert)
		}
	}

	current := w.clock.Current()

	for _, component := range components {
		ty := component.ComponentType()

		if err := w.column(ty).InsertValue(current, entityId, component); err != nil {
			return fmt.Errorf("insert %s: %w", ty, err)
		}
	}

	return nil
}

// RemoveType removes the component of the given type from the entity.
func (w *World) RemoveType(entityId EntityId, ty *ComponentType) error {
	if err := w.validateEntity(entityId); err != nil {
		return err
	}

	if err := w.column(ty).Remove(entityId); err != nil {
		return fmt.Errorf("remove %s: %w", ty, err)
	}

	return nil
}

// HasType reports whether the entity holds a component of the given type.
func (w *World) HasType(entityId EntityId, ty *ComponentType) bool {
	column, ok := w.columns[ty]
	return ok && column.Contains(entityId)
}

// Alive reports whether the entity exists.
func (w *World) Alive(entityId EntityId) bool {
	return w.entities.Contains(entityId)
}

func typedColumn[C IsComponent[C]](w *World) store.Typed[C] {
	return w.column(ComponentTypeOf[C]()).(store.Typed[C])
}

// Get returns a copy of the entity's component. The change record is not touched.
func Get[C IsComponent[C]](w *World, entityId EntityId) (C, error) {
	if err := w.validateEntity(entityId); err != nil {
		var zero C
		return zero, err
	}

	return getFrom(typedColumn[C](w), entityId)
}

func getFrom[C any](column store.Typed[C], entityId EntityId) (C, error) {
	value, err := column.Get(entityId)
	if err != nil {
		var zero C
		return zero, err
	}

	return *value, nil
}

// GetMut returns a pointer to the entity's component and marks it as changed
// in the current tick. Acquiring the pointer is enough, the value is
// not compared. The pointer is valid until the next structural change of the world.
func GetMut[C IsComponent[C]](w *World, entityId EntityId) (*C, error) {
	if err := w.validateEntity(entityId); err != nil {
		return nil, err
	}

	return typedColumn[C](w).GetMut(w.clock.Current(), entityId)
}

// Replace overwrites the existing component of an entity and marks it as changed.
func Replace[C IsComponent[C]](w *World, entityId EntityId, value C) error {
	if err := w.validateEntity(entityId); err != nil {
		return err
	}

	return typedColumn[C](w).Replace(w.clock.Current(), entityId, value)
}

// Remove removes the component of type C from the entity.
func Remove[C IsComponent[C]](w *World, entityId EntityId) error {
	return w.RemoveType(entityId, ComponentTypeOf[C]())
}

// Has reports whether the entity has a component of type C.
func Has[C IsComponent[C]](w *World, entityId EntityId) bool {
	return w.HasType(entityId, ComponentTypeOf[C]())
}

// RecordOf returns the change record of the entity's component.
func RecordOf[C IsComponent[C]](w *World, entityId EntityId) (ChangeRecord, error) {
	if err := w.validateEntity(entityId); err != nil {
		return ChangeRecord{}, err
	}

	record, ok := typedColumn[C](w).Record(entityId)
	if !ok {
		return ChangeRecord{}, fmt.Errorf("record of entity %s: %w", entityId, ErrMissingComponent)
	}

	return record, nil
}
