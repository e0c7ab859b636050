// Package runner drives many independent behavior trees built from shared
// documents, each on its own goroutine at a fixed cadence.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/btree/internal/core/bt"
	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
)

// Topic is the bus topic trees spawned by a Manager publish to by default.
const Topic = "bt"

type Option func(*settings)

type settings struct {
	seed  int64
	topic string
}

// WithSeed gives every spawned instance a reproducible random source. The
// n-th instance is seeded with seed+n.
func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed = seed }
}

func WithTopic(topic string) Option {
	return func(s *settings) { s.topic = topic }
}

// Manager owns a set of tree instances sharing one registry.
type Manager[C any] struct {
	registry *bt.Registry[C]
	events   bus.EventBus
	logger   log.Log
	settings settings

	mu    sync.Mutex
	docs  map[uint64]*bt.Document
	trees map[string]*bt.Tree[C]
	order []string
}

// NewManager creates a manager. events may be nil, in which case trees publish
// nothing.
func NewManager[C any](reg *bt.Registry[C], events bus.EventBus, logger log.Log, opts ...Option) *Manager[C] {
	if reg == nil {
		reg = bt.NewRegistry[C]()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := settings{topic: Topic}
	for _, opt := range opts {
		opt(&s)
	}
	if events != nil {
		_ = events.CreateTopic(s.topic)
	}
	return &Manager[C]{
		registry: reg,
		events:   events,
		logger:   logger.With(log.String("component", "runner")),
		settings: s,
		docs:     make(map[uint64]*bt.Document),
		trees:    make(map[string]*bt.Tree[C]),
	}
}

func (m *Manager[C]) Registry() *bt.Registry[C] { return m.registry }
func (m *Manager[C]) Topic() string             { return m.settings.topic }

// Parse returns the cached document for source, parsing it on first use.
func (m *Manager[C]) Parse(source string) (*bt.Document, error) {
	key := xxhash.Sum64String(source)
	m.mu.Lock()
	doc, ok := m.docs[key]
	m.mu.Unlock()
	if ok {
		return doc, nil
	}
	doc, err := bt.Parse(source)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.docs[key] = doc
	m.mu.Unlock()
	return doc, nil
}

// Spawn builds a new instance of source bound to ctx. An empty id is replaced
// by a generated one.
func (m *Manager[C]) Spawn(id, source string, ctx C) (*bt.Tree[C], error) {
	doc, err := m.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[id]; ok && id != "" {
		return nil, fmt.Errorf("spawn %q: %w", id, ErrDuplicateInstance)
	}

	opts := []bt.Option{bt.WithLogger(m.logger)}
	if id != "" {
		opts = append(opts, bt.WithID(id))
	}
	if m.events != nil {
		opts = append(opts, bt.WithEventBus(m.events, m.settings.topic))
	}
	if m.settings.seed != 0 {
		opts = append(opts, bt.WithSeed(m.settings.seed+int64(len(m.order))))
	}
	tree := bt.New(ctx, m.registry, opts...)
	if err := tree.LoadDocument(doc); err != nil {
		return nil, fmt.Errorf("spawn %q: %w", id, err)
	}

	m.trees[tree.ID()] = tree
	m.order = append(m.order, tree.ID())
	m.logger.Debug("instance spawned", log.String("tree", tree.ID()), log.Int("instances", len(m.order)))
	return tree, nil
}

// Instances returns the instance IDs in spawn order.
func (m *Manager[C]) Instances() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager[C]) Tree(id string) (*bt.Tree[C], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trees[id]
	return t, ok
}

// Run ticks every instance once per interval on its own goroutine until ctx
// is cancelled or each instance has ticked maxTicks times (0 means no limit).
// Before each tick step is called with the instance context and the seconds
// elapsed since that instance's previous tick (or since Run started), so the
// host can advance its world by real time even when ticks arrive late. A panicking instance stops
// all others and its panic is returned as an error.
func (m *Manager[C]) Run(ctx context.Context, interval time.Duration, maxTicks uint64, step func(C, float64)) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	m.mu.Lock()
	trees := make([]*bt.Tree[C], 0, len(m.order))
	for _, id := range m.order {
		trees = append(trees, m.trees[id])
	}
	m.mu.Unlock()
	if len(trees) == 0 {
		return ErrNoInstances
	}

	m.logger.Info("runner started",
		log.Int("instances", len(trees)),
		log.Duration("interval", interval),
		log.Uint64("max_ticks", maxTicks),
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, tree := range trees {
		g.Go(func() error {
			return m.drive(gctx, tree, interval, maxTicks, step)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	m.logger.Info("runner stopped", log.Error(err))
	return err
}

func (m *Manager[C]) drive(ctx context.Context, tree *bt.Tree[C], interval time.Duration, maxTicks uint64, step func(C, float64)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInstancePanic, tree.ID(), r)
			m.logger.Error("instance panicked", log.String("tree", tree.ID()), log.Error(err))
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for n := uint64(0); maxTicks == 0 || n < maxTicks; n++ {
		var now time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-ticker.C:
		}
		dt := now.Sub(last).Seconds()
		last = now
		if step != nil {
			step(tree.Context(), dt)
		}
		tree.Tick()
	}
	m.logger.Debug("instance finished", log.String("tree", tree.ID()), log.Uint64("ticks", tree.Ticks()))
	return nil
}
