package bt

import (
	"sort"
	"sync"
)

type (
	LeafFactory[C any]      func(ctx C, p Params) (Node[C], error)
	DecoratorFactory[C any] func(ctx C, p Params, child Node[C]) (Node[C], error)
	CompositeFactory[C any] func(ctx C, p Params, children []Node[C]) (Node[C], error)
)

// Descriptor is a registry entry. Kind selects which factory the builder
// calls; the factory for that kind must be set.
type Descriptor[C any] struct {
	Kind      Kind
	Leaf      LeafFactory[C]
	Decorator DecoratorFactory[C]
	Composite CompositeFactory[C]
}

func (d Descriptor[C]) valid() bool {
	switch d.Kind {
	case KindLeaf:
		return d.Leaf != nil
	case KindDecorator:
		return d.Decorator != nil
	case KindComposite:
		return d.Composite != nil
	default:
		return false
	}
}

// Registry maps node tags to descriptors. Lookups are safe for concurrent use,
// so one registry can serve many builds.
type Registry[C any] struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor[C]
}

// NewRegistry returns a registry with the built-in composites and decorators
// already registered.
func NewRegistry[C any]() *Registry[C] {
	r := &Registry[C]{descriptors: make(map[string]Descriptor[C])}
	registerBuiltins(r)
	return r
}

// Register associates tag with d. An existing entry is replaced, which also
// allows overriding built-ins.
func (r *Registry[C]) Register(tag string, d Descriptor[C]) {
	r.mu.Lock()
	r.descriptors[tag] = d
	r.mu.Unlock()
}

func (r *Registry[C]) RegisterLeaf(tag string, f LeafFactory[C]) {
	r.Register(tag, Descriptor[C]{Kind: KindLeaf, Leaf: f})
}

func (r *Registry[C]) RegisterDecorator(tag string, f DecoratorFactory[C]) {
	r.Register(tag, Descriptor[C]{Kind: KindDecorator, Decorator: f})
}

func (r *Registry[C]) RegisterComposite(tag string, f CompositeFactory[C]) {
	r.Register(tag, Descriptor[C]{Kind: KindComposite, Composite: f})
}

// Lookup returns the descriptor for tag or an ErrUnknownNodeTag build error.
func (r *Registry[C]) Lookup(tag string) (Descriptor[C], error) {
	r.mu.RLock()
	d, ok := r.descriptors[tag]
	r.mu.RUnlock()
	if !ok {
		return Descriptor[C]{}, newBuildError(ErrUnknownNodeTag, tag, 0)
	}
	return d, nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry[C]) Tags() []string {
	r.mu.RLock()
	tags := make([]string, 0, len(r.descriptors))
	for tag := range r.descriptors {
		tags = append(tags, tag)
	}
	r.mu.RUnlock()
	sort.Strings(tags)
	return tags
}

// Clone returns an independent copy of the registry.
func (r *Registry[C]) Clone() *Registry[C] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry[C]{descriptors: make(map[string]Descriptor[C], len(r.descriptors))}
	for tag, d := range r.descriptors {
		c.descriptors[tag] = d
	}
	return c
}

// Leaf wraps a stateless function into a factory that ignores parameters.
func Leaf[C any](fn func(ctx C) Status) LeafFactory[C] {
	return func(_ C, _ Params) (Node[C], error) {
		return LeafFunc[C](fn), nil
	}
}
