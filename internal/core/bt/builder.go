package bt

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
)

// Option configures Build and New.
type Option func(*options)

type options struct {
	logger log.Log
	rnd    *rand.Rand
	events bus.EventBus
	topic  string
	id     string
}

func defaultOptions() options {
	return options{logger: log.NewNop()}
}

// WithSeed makes Random nodes and Params.Rand reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rnd = rand.New(rand.NewSource(seed)) }
}

// WithRand derives per-node random sources from r.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

func WithLogger(l log.Log) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEventBus makes a Tree publish a TickEvent to topic after every tick.
func WithEventBus(b bus.EventBus, topic string) Option {
	return func(o *options) {
		o.events = b
		o.topic = topic
	}
}

// WithID overrides the generated tree ID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// buildEnv is shared by all nodes of one build.
type buildEnv struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (e *buildEnv) nextRand() *rand.Rand {
	e.mu.Lock()
	seed := e.rnd.Int63()
	e.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// BuildString parses source and builds it. See Build.
func BuildString[C any](reg *Registry[C], source string, ctx C, opts ...Option) (Node[C], error) {
	doc, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Build(reg, doc, ctx, opts...)
}

// Build constructs the node graph of doc bottom-up: every child is fully built
// before its parent's factory runs. Any failure aborts the whole build.
func Build[C any](reg *Registry[C], doc *Document, ctx C, opts ...Option) (Node[C], error) {
	if doc == nil || len(doc.Lines) == 0 {
		return nil, newBuildError(ErrEmptyDocument, "", 0)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	b := &builder[C]{
		reg:    reg,
		ctx:    ctx,
		lines:  doc.Lines,
		env:    &buildEnv{rnd: o.rnd},
		logger: o.logger,
	}
	root, next, err := b.build(0)
	if err != nil {
		return nil, err
	}
	for ; next < len(b.lines); next++ {
		if l := b.lines[next]; !l.Blank() {
			return nil, newBuildError(ErrTrailingLines, l.Tag, l.Number)
		}
	}
	b.logger.Debug("tree built",
		log.String("root", doc.Lines[0].Tag),
		log.Int("nodes", b.count),
		log.Uint64("fingerprint", doc.Fingerprint()),
	)
	return root, nil
}

type builder[C any] struct {
	reg    *Registry[C]
	ctx    C
	lines  []Line
	env    *buildEnv
	logger log.Log
	count  int
}

// build constructs the node on line i and its subtree, returning the index of
// the first line it did not consume.
func (b *builder[C]) build(i int) (Node[C], int, error) {
	line := b.lines[i]
	desc, err := b.reg.Lookup(line.Tag)
	if err != nil {
		return nil, 0, b.locate(err, line)
	}
	if !desc.valid() {
		return nil, 0, newBuildError(ErrNodeKindMismatch, line.Tag, line.Number)
	}
	params := Params{tag: line.Tag, line: line.Number, values: line.Params, env: b.env}

	var (
		node Node[C]
		next int
	)
	switch desc.Kind {
	case KindLeaf:
		if n := i + 1; n < len(b.lines) && b.lines[n].Depth > line.Depth {
			return nil, 0, newBuildError(ErrUnexpectedChild, line.Tag, b.lines[n].Number)
		}
		if node, err = desc.Leaf(b.ctx, params); err != nil {
			return nil, 0, b.locate(err, line)
		}
		next = i + 1

	case KindDecorator:
		childDepth, err := b.childDepth(i)
		if err != nil {
			return nil, 0, err
		}
		child, n, err := b.build(i + 1)
		if err != nil {
			return nil, 0, err
		}
		if n < len(b.lines) {
			switch d := b.lines[n].Depth; {
			case d == childDepth:
				return nil, 0, newBuildError(ErrTooManyChildren, line.Tag, b.lines[n].Number)
			case d > line.Depth:
				return nil, 0, newBuildError(ErrInvalidChildDepth, line.Tag, b.lines[n].Number)
			}
		}
		if node, err = desc.Decorator(b.ctx, params, child); err != nil {
			return nil, 0, b.locate(err, line)
		}
		next = n

	case KindComposite:
		target, err := b.childDepth(i)
		if err != nil {
			return nil, 0, err
		}
		var children []Node[C]
		n := i + 1
		for n < len(b.lines) && b.lines[n].Depth == target {
			child, after, err := b.build(n)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, child)
			n = after
		}
		if n < len(b.lines) && b.lines[n].Depth > line.Depth {
			return nil, 0, newBuildError(ErrInvalidChildDepth, line.Tag, b.lines[n].Number)
		}
		if node, err = desc.Composite(b.ctx, params, children); err != nil {
			return nil, 0, b.locate(err, line)
		}
		next = n
	}
	b.count++
	return node, next, nil
}

// childDepth validates the first child line of the parent on line i.
func (b *builder[C]) childDepth(i int) (int, error) {
	parent := b.lines[i]
	n := i + 1
	if n >= len(b.lines) || b.lines[n].Blank() {
		return 0, newBuildError(ErrMissingChild, parent.Tag, parent.Number)
	}
	if b.lines[n].Depth <= parent.Depth {
		return 0, newBuildError(ErrInvalidChildDepth, parent.Tag, b.lines[n].Number)
	}
	return b.lines[n].Depth, nil
}

// locate fills in the source position of err, wrapping foreign factory errors.
func (b *builder[C]) locate(err error, line Line) error {
	var be *BuildError
	if errors.As(err, &be) {
		if be.Line == 0 {
			be.Line = line.Number
		}
		if be.Tag == "" {
			be.Tag = line.Tag
		}
		return be
	}
	return &BuildError{Err: err, Tag: line.Tag, Line: line.Number}
}
