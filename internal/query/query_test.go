package query

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/oliverbestmann/spoke/internal/store"
	"github.com/oliverbestmann/spoke/internal/tick"
	"github.com/stretchr/testify/require"
)

type Position struct {
	X, Y int
}

type Frozen struct{}

func window(lastRun, thisRun tick.Tick) tick.Window {
	return tick.Window{LastRun: lastRun, ThisRun: thisRun}
}

func collect(q *Query, w tick.Window) []store.EntityId {
	return slices.Collect(q.Iter(w).Seq())
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNoTarget)

	_, err = New(store.NewTable[Position](), Filter{Op: With})
	require.Error(t, err)
}

func TestQuery_Added(t *testing.T) {
	for name, positions := range map[string]store.Typed[Position]{
		"Table":  store.NewTable[Position](),
		"Sparse": store.NewSparse[Position](),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, positions.Insert(1, 1, Position{}))
			require.NoError(t, positions.Insert(1, 2, Position{}))
			require.NoError(t, positions.Insert(2, 3, Position{}))

			q, err := New(positions, Filter{Op: Added, Column: positions})
			require.NoError(t, err)

			require.Equal(t, []store.EntityId{1, 2}, collect(q, window(0, 1)))
			require.Equal(t, []store.EntityId{3}, collect(q, window(1, 2)))
			require.Equal(t, []store.EntityId{1, 2, 3}, collect(q, window(0, 2)))
			require.Empty(t, collect(q, window(2, 3)))
		})
	}
}

func TestQuery_Changed(t *testing.T) {
	positions := store.NewTable[Position]()
	for entityId := range store.EntityId(10) {
		require.NoError(t, positions.Insert(1, entityId, Position{}))
	}

	_, _ = positions.GetMut(2, 4)
	_, _ = positions.GetMut(2, 8)

	q, err := New(positions, Filter{Op: Changed, Column: positions})
	require.NoError(t, err)

	require.Equal(t, []store.EntityId{4, 8}, collect(q, window(1, 2)))
	require.Equal(t, 10, q.Count(window(0, 2)))
	require.Zero(t, q.Count(window(2, 3)))
}

func TestQuery_CombinedWithArchetypeFilters(t *testing.T) {
	positions := store.NewTable[Position]()
	frozen := store.NewSparse[Frozen]()

	for entityId := range store.EntityId(6) {
		require.NoError(t, positions.Insert(1, entityId, Position{}))
	}

	require.NoError(t, frozen.Insert(1, 0, Frozen{}))
	require.NoError(t, frozen.Insert(1, 1, Frozen{}))

	_, _ = positions.GetMut(2, 1)
	_, _ = positions.GetMut(2, 2)

	t.Run("changed and without", func(t *testing.T) {
		q, err := New(positions,
			Filter{Op: Changed, Column: positions},
			Filter{Op: Without, Column: frozen},
		)
		require.NoError(t, err)
		require.Equal(t, []store.EntityId{2}, collect(q, window(1, 2)))
	})

	t.Run("changed and with", func(t *testing.T) {
		q, err := New(positions,
			Filter{Op: Changed, Column: positions},
			Filter{Op: With, Column: frozen},
		)
		require.NoError(t, err)
		require.Equal(t, []store.EntityId{1}, collect(q, window(1, 2)))
	})

	t.Run("added on another column", func(t *testing.T) {
		require.NoError(t, frozen.Insert(2, 5, Frozen{}))

		q, err := New(positions, Filter{Op: Added, Column: frozen})
		require.NoError(t, err)
		require.Equal(t, []store.EntityId{5}, collect(q, window(1, 2)))
	})

	t.Run("added and changed", func(t *testing.T) {
		q, err := New(positions,
			Filter{Op: Added, Column: positions},
			Filter{Op: Changed, Column: positions},
		)
		require.NoError(t, err)
		require.Empty(t, collect(q, window(1, 2)))
		require.Len(t, collect(q, window(0, 2)), 6)
	})
}

func TestQuery_IndependentIterators(t *testing.T) {
	positions := store.NewSparse[Position]()
	for entityId := range store.EntityId(3) {
		require.NoError(t, positions.Insert(1, entityId, Position{}))
	}

	q, err := New(positions, Filter{Op: Added, Column: positions})
	require.NoError(t, err)

	first := q.Iter(window(0, 1))
	second := q.Iter(window(0, 1))

	entityId, ok := first.Next()
	require.True(t, ok)
	require.Equal(t, store.EntityId(0), entityId)

	// the second iterator is not affected by the first one
	require.Equal(t, []store.EntityId{0, 1, 2}, slices.Collect(second.Seq()))
	require.Equal(t, []store.EntityId{1, 2}, slices.Collect(first.Seq()))

	// evaluating the queries did not touch the records
	record, _ := positions.Record(1)
	require.Equal(t, tick.Tick(1), record.Changed)
}

func TestQuery_SkipsColumnWithoutChanges(t *testing.T) {
	positions := store.NewTable[Position]()
	require.NoError(t, positions.Insert(1, 1, Position{}))

	q, err := New(positions, Filter{Op: Changed, Column: positions})
	require.NoError(t, err)

	it := q.Iter(window(1, 2))
	require.Zero(t, it.inner.Remaining())
}

func TestQuery_WindowBeforeNewestTick(t *testing.T) {
	for name, positions := range map[string]store.Typed[Position]{
		"Table":  store.NewTable[Position](),
		"Sparse": store.NewSparse[Position](),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, positions.Insert(1, 1, Position{}))
			require.NoError(t, positions.Insert(4, 2, Position{}))

			q, err := New(positions, Filter{Op: Added, Column: positions})
			require.NoError(t, err)

			require.Equal(t, []store.EntityId{1}, collect(q, window(0, 2)))
			require.Equal(t, []store.EntityId{2}, collect(q, window(2, 4)))
		})
	}
}

func TestQuery_BackendParity(t *testing.T) {
	table := store.NewTable[Position]()
	sparse := store.NewSparse[Position]()

	rng := rand.New(rand.NewPCG(7, 11))

	const lastTick = 40

	for at := tick.Tick(1); at <= lastTick; at++ {
		for range 25 {
			entityId := store.EntityId(rng.IntN(100))
			op := rng.IntN(3)

			for _, column := range []store.Typed[Position]{table, sparse} {
				switch op {
				case 0:
					_ = column.Insert(at, entityId, Position{})
				case 1:
					_, _ = column.GetMut(at, entityId)
				default:
					_ = column.Remove(entityId)
				}
			}
		}
	}

	for _, op := range []Op{Added, Changed} {
		qTable, err := New(table, Filter{Op: op, Column: table})
		require.NoError(t, err)

		qSparse, err := New(sparse, Filter{Op: op, Column: sparse})
		require.NoError(t, err)

		// includes windows in the past and windows reaching beyond the last tick
		for lastRun := tick.Tick(0); lastRun <= lastTick+2; lastRun++ {
			for thisRun := lastRun + 1; thisRun <= lastTick+3; thisRun++ {
				w := window(lastRun, thisRun)

				require.ElementsMatch(t,
					collect(qTable, w), collect(qSparse, w),
					"%s in window %v", op, w)
			}
		}
	}
}

func TestOp_String(t *testing.T) {
	require.Equal(t, "Without", Without.String())
	require.Equal(t, "Op(0)", Op(0).String())
}
