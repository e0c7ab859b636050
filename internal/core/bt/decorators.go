package bt

import "fmt"

// ConvertTo maps every terminal child result to a fixed status; Running
// passes through.
type ConvertTo[C any] struct {
	child     Node[C]
	toSuccess bool
}

func NewConvertTo[C any](toSuccess bool, child Node[C]) *ConvertTo[C] {
	return &ConvertTo[C]{child: child, toSuccess: toSuccess}
}

func (d *ConvertTo[C]) Tick(ctx C) Status {
	if d.child.Tick(ctx) == StatusRunning {
		return StatusRunning
	}
	if d.toSuccess {
		return StatusSuccess
	}
	return StatusFailure
}

// Inverter flips Success <-> Failure; Running passes through.
type Inverter[C any] struct {
	child Node[C]
}

func NewInverter[C any](child Node[C]) *Inverter[C] { return &Inverter[C]{child: child} }

func (d *Inverter[C]) Tick(ctx C) Status {
	switch st := d.child.Tick(ctx); st {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return st
	}
}

// Timer holds its child back until Target seconds of step time have
// accumulated, returning Running meanwhile. A repeating timer restarts the wait
// after each firing; a non-repeating one keeps ticking the child once expired.
type Timer[C any] struct {
	child     Node[C]
	target    float64
	repeating bool
	elapsed   float64
}

func NewTimer[C any](target float64, repeating bool, child Node[C]) *Timer[C] {
	return &Timer[C]{child: child, target: target, repeating: repeating}
}

func (d *Timer[C]) Tick(ctx C) Status {
	if d.elapsed < d.target {
		if clock, ok := any(ctx).(DeltaTimer); ok {
			d.elapsed += clock.DeltaTime()
		}
	}
	if d.elapsed < d.target {
		return StatusRunning
	}
	st := d.child.Tick(ctx)
	if d.repeating {
		d.elapsed = 0
	}
	return st
}

// Elapsed reports the accumulated step time in seconds.
func (d *Timer[C]) Elapsed() float64 { return d.elapsed }

func convertToFactory[C any](_ C, p Params, child Node[C]) (Node[C], error) {
	toSuccess, err := p.Bool(0)
	if err != nil {
		return nil, err
	}
	return NewConvertTo(toSuccess, child), nil
}

func inverterFactory[C any](_ C, _ Params, child Node[C]) (Node[C], error) {
	return NewInverter(child), nil
}

func timerFactory[C any](ctx C, p Params, child Node[C]) (Node[C], error) {
	if _, ok := any(ctx).(DeltaTimer); !ok {
		return nil, &BuildError{Err: ErrContextCapability, Tag: p.Tag(), Line: p.line, Cause: fmt.Errorf("%T does not implement DeltaTimer", ctx)}
	}
	target, err := p.Float(0)
	if err != nil {
		return nil, err
	}
	repeating, err := p.Bool(1)
	if err != nil {
		return nil, err
	}
	return NewTimer(target, repeating, child), nil
}

func registerBuiltins[C any](r *Registry[C]) {
	r.RegisterComposite("Priority", priorityFactory[C])
	r.RegisterComposite("Sequence", sequenceFactory[C])
	r.RegisterComposite("Loop", loopFactory[C])
	r.RegisterComposite("Random", randomFactory[C])
	r.RegisterComposite("Concurrent", concurrentFactory[C])
	r.RegisterDecorator("ConvertTo", convertToFactory[C])
	r.RegisterDecorator("Inverter", inverterFactory[C])
	r.RegisterDecorator("Timer", timerFactory[C])
}
