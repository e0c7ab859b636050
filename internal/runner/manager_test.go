package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/btree/internal/core/bt"
	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
)

type agent struct {
	name  string
	ticks int
	steps int
	dt    float64
	// elapsed sums every dt handed to the step function.
	elapsed float64
	picked  []int
}

func (a *agent) DeltaTime() float64 { return a.dt }

func newRegistry() *bt.Registry[*agent] {
	reg := bt.NewRegistry[*agent]()
	reg.RegisterLeaf("Count", bt.Leaf(func(a *agent) bt.Status {
		a.ticks++
		return bt.StatusSuccess
	}))
	for i, tag := range []string{"PickA", "PickB", "PickC"} {
		reg.RegisterLeaf(tag, bt.Leaf(func(a *agent) bt.Status {
			a.picked = append(a.picked, i)
			return bt.StatusSuccess
		}))
	}
	reg.RegisterLeaf("Boom", bt.Leaf(func(a *agent) bt.Status {
		if a.name == "bad" && a.ticks > 2 {
			panic("leaf exploded")
		}
		return bt.StatusSuccess
	}))
	return reg
}

func TestSpawnSharesParsedDocument(t *testing.T) {
	m := NewManager(newRegistry(), nil, log.NewNop())

	a, err := m.Spawn("a", "Sequence\n Count", &agent{})
	require.NoError(t, err)
	b, err := m.Spawn("b", "Sequence\n Count", &agent{})
	require.NoError(t, err)

	assert.Same(t, a.Document(), b.Document())
	assert.NotSame(t, a.Root(), b.Root())
	assert.Equal(t, []string{"a", "b"}, m.Instances())

	got, ok := m.Tree("b")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestSpawnErrors(t *testing.T) {
	m := NewManager(newRegistry(), nil, nil)

	_, err := m.Spawn("x", "Sequence\n Count", &agent{})
	require.NoError(t, err)

	_, err = m.Spawn("x", "Sequence\n Count", &agent{})
	assert.ErrorIs(t, err, ErrDuplicateInstance)

	_, err = m.Spawn("y", "Sequence\n Missing", &agent{})
	assert.ErrorIs(t, err, bt.ErrUnknownNodeTag)

	_, err = m.Spawn("z", "", &agent{})
	assert.ErrorIs(t, err, bt.ErrEmptyDocument)

	assert.Equal(t, []string{"x"}, m.Instances())
}

func TestSpawnGeneratesIDs(t *testing.T) {
	m := NewManager(newRegistry(), nil, nil)
	a, err := m.Spawn("", "Count", &agent{})
	require.NoError(t, err)
	b, err := m.Spawn("", "Count", &agent{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, m.Instances(), 2)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	events := bus.New()
	var published atomic.Int64
	_, err := events.SubscribeTopic(Topic, bt.EventTick, func(bus.Event) error {
		published.Add(1)
		return nil
	})
	require.NoError(t, err)

	m := NewManager(newRegistry(), events, nil)
	agents := []*agent{{}, {}, {}}
	for _, a := range agents {
		_, err := m.Spawn("", "Sequence\n Count", a)
		require.NoError(t, err)
	}

	var mu sync.Mutex
	steps := 0
	start := time.Now()
	err = m.Run(context.Background(), time.Millisecond, 5, func(a *agent, dt float64) {
		mu.Lock()
		steps++
		mu.Unlock()
		assert.Greater(t, dt, 0.0)
		a.steps++
		a.dt = dt
		a.elapsed += dt
	})
	wall := time.Since(start).Seconds()
	require.NoError(t, err)

	for _, a := range agents {
		assert.Equal(t, 5, a.ticks)
		assert.Equal(t, 5, a.steps)
		assert.LessOrEqual(t, a.elapsed, wall, "deltas are measured, not nominal")
		assert.GreaterOrEqual(t, a.elapsed, 0.004)
	}
	assert.Equal(t, 15, steps)
	assert.Equal(t, int64(15), published.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager(newRegistry(), nil, nil)
	a := &agent{}
	_, err := m.Spawn("a", "Count", a)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx, time.Millisecond, 0, nil))

	tree, _ := m.Tree("a")
	assert.Positive(t, tree.Ticks())
}

func TestRunReportsPanics(t *testing.T) {
	m := NewManager(newRegistry(), nil, nil)
	good := &agent{name: "good"}
	bad := &agent{name: "bad"}
	_, err := m.Spawn("good", "Sequence\n Count\n Boom", good)
	require.NoError(t, err)
	_, err = m.Spawn("bad", "Sequence\n Count\n Boom", bad)
	require.NoError(t, err)

	err = m.Run(context.Background(), time.Millisecond, 0, nil)
	require.ErrorIs(t, err, ErrInstancePanic)
	assert.Contains(t, err.Error(), "bad: leaf exploded")
}

func TestRunValidation(t *testing.T) {
	m := NewManager(newRegistry(), nil, nil)
	assert.ErrorIs(t, m.Run(context.Background(), time.Millisecond, 1, nil), ErrNoInstances)
	assert.ErrorIs(t, m.Run(context.Background(), 0, 1, nil), ErrInvalidInterval)
}

func TestSeededInstancesAreReproducible(t *testing.T) {
	const doc = "Random\n PickA\n PickB\n PickC"
	run := func() [][]int {
		m := NewManager(newRegistry(), nil, nil, WithSeed(11))
		agents := []*agent{{}, {}}
		for _, a := range agents {
			_, err := m.Spawn("", doc, a)
			require.NoError(t, err)
		}
		require.NoError(t, m.Run(context.Background(), time.Millisecond, 12, nil))
		return [][]int{agents[0].picked, agents[1].picked}
	}
	first := run()
	assert.Len(t, first[0], 12)
	assert.Equal(t, first, run())
	assert.NotEqual(t, first[0], first[1], "instances get distinct seeds")
}
