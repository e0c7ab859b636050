// Package bt is a small behavior-tree runtime. A tree is described by an
// indentation-structured text document, built once against a Registry of
// node factories and then ticked once per scheduling step.
//
// Nodes are generic over the host context type C. The context is opaque to the
// runtime: it is handed to factories at build time and to every node on every
// tick, and only the host's leaves inspect it.
package bt

import "fmt"

// Status represents the execution result of a node tick.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusRunning:
		return "Running"
	default:
		return "Invalid"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Success":
		*s = StatusSuccess
	case "Failure":
		*s = StatusFailure
	case "Running":
		*s = StatusRunning
	default:
		return fmt.Errorf("bt: unknown status %q", b)
	}
	return nil
}

// Node is the fundamental unit of behavior. Tick runs one step and must always
// produce a well-defined status; there is no error channel at tick time.
type Node[C any] interface {
	Tick(ctx C) Status
}

// Kind classifies a registered node by the shape of constructor it needs.
type Kind int

const (
	KindInvalid Kind = iota
	KindLeaf
	KindDecorator
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindDecorator:
		return "decorator"
	case KindComposite:
		return "composite"
	default:
		return "invalid"
	}
}

// LeafFunc adapts a plain function to a stateless leaf node.
type LeafFunc[C any] func(ctx C) Status

func (f LeafFunc[C]) Tick(ctx C) Status { return f(ctx) }

// DeltaTimer is implemented by contexts that can report the duration of the
// current scheduling step in seconds. Timer nodes require it.
type DeltaTimer interface {
	DeltaTime() float64
}
