package spoke

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/oliverbestmann/spoke/internal/set"
	"github.com/oliverbestmann/spoke/internal/tick"
	"golang.org/x/sync/errgroup"
)

// Access declares that a system reads or writes a component type.
type Access struct {
	ty    *ComponentType
	write bool
}

// Reads declares read access to components of type C.
func Reads[C IsComponent[C]]() Access {
	return Access{ty: ComponentTypeOf[C]()}
}

// Writes declares write access to components of type C. Write access includes read access.
func Writes[C IsComponent[C]]() Access {
	return Access{ty: ComponentTypeOf[C](), write: true}
}

type SystemFunc func(ctx *SystemContext) error

// System is a function together with the component types it accesses and
// the tick it last ran at. Create systems using NewSystem and keep them
// around, the last run tick is what makes change detection work.
type System struct {
	Name string

	run    SystemFunc
	reads  set.Set[*ComponentType]
	writes set.Set[*ComponentType]

	lastRun tick.Tick
}

func NewSystem(name string, run SystemFunc, access ...Access) *System {
	system := &System{
		Name: name,
		run:  run,
	}

	for _, access := range access {
		system.reads.Insert(access.ty)

		if access.write {
			system.writes.Insert(access.ty)
		}
	}

	return system
}

func (s *System) String() string {
	return s.Name
}

// LastRun returns the tick the system last ran at.
func (s *System) LastRun() Tick {
	return s.lastRun
}

// ConflictsWith reports whether both systems must not run at the same time,
// as at least one of them writes a component type that the other one accesses.
func (s *System) ConflictsWith(other *System) bool {
	return s.writes.Intersects(&other.reads) || other.writes.Intersects(&s.reads)
}

// SystemContext is passed to a running system. It provides the window of the
// system and checked access to the components the system declared.
type SystemContext struct {
	world    *World
	system   *System
	window   Window
	commands Commands
}

// Window returns the window of the current run.
// Changes made after LastRun up to ThisRun are visible to the system.
func (ctx *SystemContext) Window() Window {
	return ctx.window
}

// Commands returns the command queue of the system. Queued commands are
// applied to the world once the system finished.
func (ctx *SystemContext) Commands() *Commands {
	return &ctx.commands
}

func (ctx *SystemContext) checkAccess(ty *ComponentType, write bool) error {
	if write && !ctx.system.writes.Has(ty) {
		return fmt.Errorf("system %s writes %s: %w", ctx.system, ty, ErrAccessDenied)
	}

	if !ctx.system.reads.Has(ty) {
		return fmt.Errorf("system %s reads %s: %w", ctx.system, ty, ErrAccessDenied)
	}

	return nil
}

// Read returns a copy of the entity's component. The system must have declared read access to C.
func Read[C IsComponent[C]](ctx *SystemContext, entityId EntityId) (C, error) {
	if err := ctx.checkAccess(ComponentTypeOf[C](), false); err != nil {
		var zero C
		return zero, err
	}

	return Get[C](ctx.world, entityId)
}

// Write returns a pointer to the entity's component and marks it as changed
// at the systems tick. The system must have declared write access to C.
func Write[C IsComponent[C]](ctx *SystemContext, entityId EntityId) (*C, error) {
	if err := ctx.checkAccess(ComponentTypeOf[C](), true); err != nil {
		return nil, err
	}

	if err := ctx.world.validateEntity(entityId); err != nil {
		return nil, err
	}

	return typedColumn[C](ctx.world).GetMut(ctx.window.ThisRun, entityId)
}

// QueryIn creates a query within a system. The system must have declared read access
// to C and to all component types used by the filters.
func QueryIn[C IsComponent[C]](ctx *SystemContext, filters ...Filter) (*Query[C], error) {
	if err := ctx.checkAccess(ComponentTypeOf[C](), false); err != nil {
		return nil, err
	}

	for _, filter := range filters {
		if err := ctx.checkAccess(filter.ty, false); err != nil {
			return nil, err
		}
	}

	return newQuery[C](ctx.world.column, filters)
}

// prepareSystem registers the system with the world on its first run. A system that
// never ran before sees everything that currently exists as added and changed.
func (w *World) prepareSystem(system *System) {
	if !w.systems.Insert(system) {
		return
	}

	system.lastRun = tick.Initial(w.clock.Current())

	// create all columns up front, so running systems never modify the world's column index
	for ty := range system.reads.Values() {
		w.column(ty)
	}
}

// RunSystem runs a single system at the current tick and applies its commands afterwards.
// The clock moves forward once the system returned, so every later change, including
// the system's own commands, is stamped with a tick newer than the systems last run.
func (w *World) RunSystem(system *System) error {
	w.prepareSystem(system)

	ctx, elapsed, err := w.invokeSystem(system)
	w.advance()
	w.recordTiming(system, elapsed)

	return w.finishSystem(ctx, err)
}

func (w *World) invokeSystem(system *System) (*SystemContext, time.Duration, error) {
	current := w.clock.Current()

	ctx := &SystemContext{
		world:  w,
		system: system,
		window: Window{LastRun: system.lastRun, ThisRun: current},
	}

	startTime := time.Now()
	err := system.run(ctx)
	elapsed := time.Since(startTime)

	// remember the tick so we can calculate changed components at the next run
	system.lastRun = current

	return ctx, elapsed, err
}

func (w *World) finishSystem(ctx *SystemContext, runErr error) error {
	cmdErr := ctx.commands.apply(w)

	err := errors.Join(runErr, cmdErr)
	if err != nil {
		w.logger.Warn("System failed",
			slog.String("system", ctx.system.Name),
			slog.String("error", err.Error()))

		return fmt.Errorf("system %s: %w", ctx.system, err)
	}

	return nil
}

func (w *World) recordTiming(system *System, elapsed time.Duration) {
	if w.stats != nil {
		w.stats.Record(system.Name, elapsed)
	}
}

// RunParallel runs the systems in batches. Systems within a batch do not conflict
// and run concurrently at the same tick. A system that conflicts with an earlier one
// always runs in a later batch. After each batch the clock moves forward and commands
// are applied in the order the systems were given.
func (w *World) RunParallel(systems ...*System) error {
	var seen set.Set[*System]
	for _, system := range systems {
		if !seen.Insert(system) {
			return fmt.Errorf("system %s given twice", system)
		}
	}

	for _, system := range systems {
		w.prepareSystem(system)
	}

	var errs []error

	for _, batch := range parallelBatches(systems) {
		type result struct {
			ctx     *SystemContext
			elapsed time.Duration
			err     error
		}

		results := make([]result, len(batch))

		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))

		for idx, system := range batch {
			g.Go(func() error {
				ctx, elapsed, err := w.invokeSystem(system)
				results[idx] = result{ctx: ctx, elapsed: elapsed, err: err}
				return nil
			})
		}

		_ = g.Wait()

		w.advance()

		for idx, system := range batch {
			w.recordTiming(system, results[idx].elapsed)

			if err := w.finishSystem(results[idx].ctx, results[idx].err); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// parallelBatches splits the systems into batches of non conflicting systems,
// keeping the order of conflicting systems.
func parallelBatches(systems []*System) [][]*System {
	var batches [][]*System

	batchOf := make([]int, len(systems))

	for idx, system := range systems {
		batch := 0

		for prevIdx, prev := range systems[:idx] {
			if system.ConflictsWith(prev) {
				batch = max(batch, batchOf[prevIdx]+1)
			}
		}

		batchOf[idx] = batch

		if batch == len(batches) {
			batches = append(batches, nil)
		}

		batches[batch] = append(batches[batch], system)
	}

	return batches
}

// Update runs one cycle: all systems in order using RunSystem, followed by ClearTrackers.
// Each system observes every change made since its previous run, no matter if
// the change happened before or after it in the previous cycle.
func (w *World) Update(systems ...*System) error {
	var errs []error

	for _, system := range systems {
		if err := w.RunSystem(system); err != nil {
			errs = append(errs, err)
		}
	}

	w.ClearTrackers()

	return errors.Join(errs...)
}
