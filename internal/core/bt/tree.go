package bt

import (
	"github.com/google/uuid"

	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
)

// EventTick is the bus event type published after every tick of a Tree that
// has an event bus attached.
const EventTick = "bt.tick"

// TickEvent is the payload of an EventTick event.
type TickEvent struct {
	TreeID string `json:"tree_id"`
	Seq    uint64 `json:"seq"`
	Status Status `json:"status"`
}

// Tree owns one context instance and the root built against it. It is driven
// by calling Tick once per scheduling step and is not safe for concurrent use;
// independent trees may be ticked on separate goroutines.
type Tree[C any] struct {
	id       string
	ctx      C
	root     Node[C]
	registry *Registry[C]
	opts     []Option
	logger   log.Log
	events   bus.EventBus
	topic    string
	doc      *Document
	seq      uint64
}

// New creates a tree driver for ctx. A nil registry gets a fresh one with the
// built-ins registered.
func New[C any](ctx C, reg *Registry[C], opts ...Option) *Tree[C] {
	if reg == nil {
		reg = NewRegistry[C]()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	id := o.id
	if id == "" {
		id = uuid.NewString()
	}
	return &Tree[C]{
		id:       id,
		ctx:      ctx,
		registry: reg,
		opts:     opts,
		logger:   o.logger.With(log.String("tree", id)),
		events:   o.events,
		topic:    o.topic,
	}
}

func (t *Tree[C]) ID() string             { return t.id }
func (t *Tree[C]) Context() C             { return t.ctx }
func (t *Tree[C]) Registry() *Registry[C] { return t.registry }
func (t *Tree[C]) Root() Node[C]          { return t.root }

// Ticks reports how many ticks reached a root node.
func (t *Tree[C]) Ticks() uint64 { return t.seq }

// Document returns the source the current root was built from, if any.
func (t *Tree[C]) Document() *Document { return t.doc }

// RegisterLeaf adds a host leaf to the tree's registry. Call it before Load.
func (t *Tree[C]) RegisterLeaf(tag string, f LeafFactory[C]) {
	t.registry.RegisterLeaf(tag, f)
}

// Load parses and builds source, replacing the root on success only.
func (t *Tree[C]) Load(source string) error {
	doc, err := Parse(source)
	if err != nil {
		return err
	}
	return t.LoadDocument(doc)
}

// LoadDocument builds an already parsed document.
func (t *Tree[C]) LoadDocument(doc *Document) error {
	root, err := Build(t.registry, doc, t.ctx, t.opts...)
	if err != nil {
		t.logger.Warn("tree build failed", log.Error(err))
		return err
	}
	t.root = root
	t.doc = doc
	t.logger.Debug("tree loaded", log.Uint64("fingerprint", doc.Fingerprint()))
	return nil
}

// SetRoot installs a programmatically built root.
func (t *Tree[C]) SetRoot(root Node[C]) {
	t.root = root
	t.doc = nil
}

// Tick runs one depth-first evaluation of the tree. The result is not
// returned; a tree is driven step after step for as long as its owner exists.
// Ticking a tree without a root does nothing.
func (t *Tree[C]) Tick() {
	if t.root == nil {
		return
	}
	st := t.root.Tick(t.ctx)
	t.seq++
	if t.events == nil {
		return
	}
	ev := bus.NewEvent(EventTick, t.id, TickEvent{TreeID: t.id, Seq: t.seq, Status: st}, nil)
	if err := t.events.PublishToTopic(t.topic, ev); err != nil {
		t.logger.Warn("tick event delivery failed", log.Error(err), log.Uint64("seq", t.seq))
	}
}
