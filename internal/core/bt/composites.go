package bt

import "math/rand"

// Composite nodes: Priority (and Sequence), Loop, Random, Concurrent.
// Every composite keeps its progress in plain fields so a Running child is
// resumed on the next tick instead of restarting the scan.

// Priority is a generalised sequence/selector. With ReturnOnSuccess a child
// Success ends the scan (selector), otherwise a child Failure does (sequence).
// With ResumeRunning the next tick starts at the child that returned Running,
// or, in sequence mode, at the child that failed. A selector Success never
// leaves memory behind, so higher-priority children are re-evaluated.
type Priority[C any] struct {
	children        []Node[C]
	resumeRunning   bool
	returnOnSuccess bool
	resume          int
}

func NewPriority[C any](resumeRunning, returnOnSuccess bool, children ...Node[C]) *Priority[C] {
	return &Priority[C]{children: children, resumeRunning: resumeRunning, returnOnSuccess: returnOnSuccess}
}

// NewSequence is Priority(resumeRunning=true, returnOnSuccess=false).
func NewSequence[C any](children ...Node[C]) *Priority[C] {
	return NewPriority(true, false, children...)
}

func (p *Priority[C]) Tick(ctx C) Status {
	index := 0
	if p.resumeRunning {
		index = p.resume
	}
	p.resume = 0
	for ; index < len(p.children); index++ {
		st := p.children[index].Tick(ctx)
		if st == StatusRunning || p.shortCircuits(st) {
			if p.resumeRunning && (st == StatusRunning || st == StatusFailure) {
				p.resume = index
			}
			return st
		}
	}
	if p.returnOnSuccess {
		return StatusFailure
	}
	return StatusSuccess
}

func (p *Priority[C]) shortCircuits(st Status) bool {
	if p.returnOnSuccess {
		return st == StatusSuccess
	}
	return st == StatusFailure
}

// ResumeIndex reports the child the next tick will start from.
func (p *Priority[C]) ResumeIndex() int { return p.resume }

// Loop scans its children round-robin, one child per tick, wrapping to the
// first child after the last. Running holds the cursor, as does Failure in
// sequence mode. A Success in selector mode restarts the scan at the first
// child. Any other result advances the cursor.
type Loop[C any] struct {
	children        []Node[C]
	returnOnSuccess bool
	cursor          int
}

func NewLoop[C any](returnOnSuccess bool, children ...Node[C]) *Loop[C] {
	return &Loop[C]{children: children, returnOnSuccess: returnOnSuccess}
}

func (l *Loop[C]) Tick(ctx C) Status {
	if len(l.children) == 0 {
		if l.returnOnSuccess {
			return StatusFailure
		}
		return StatusSuccess
	}
	st := l.children[l.cursor].Tick(ctx)
	switch {
	case st == StatusRunning:
	case !l.returnOnSuccess && st == StatusFailure:
	case l.returnOnSuccess && st == StatusSuccess:
		l.cursor = 0
	default:
		l.cursor = (l.cursor + 1) % len(l.children)
	}
	return st
}

// Cursor reports the child the next tick will visit.
func (l *Loop[C]) Cursor() int { return l.cursor }

// Random ticks one uniformly chosen child. A child that returns Running is
// remembered and resumed, without rerolling, until it finishes.
type Random[C any] struct {
	children []Node[C]
	rnd      *rand.Rand
	running  int
}

func NewRandom[C any](rnd *rand.Rand, children ...Node[C]) *Random[C] {
	return &Random[C]{children: children, rnd: rnd, running: -1}
}

func (r *Random[C]) Tick(ctx C) Status {
	if r.running >= 0 {
		st := r.children[r.running].Tick(ctx)
		if st != StatusRunning {
			r.running = -1
		}
		return st
	}
	if len(r.children) == 0 {
		return StatusFailure
	}
	index := r.rnd.Intn(len(r.children))
	st := r.children[index].Tick(ctx)
	if st == StatusRunning {
		r.running = index
	}
	return st
}

// Concurrent ticks every child on every call and succeeds when at least
// required children produced the counted status. It never returns Running.
type Concurrent[C any] struct {
	children       []Node[C]
	countSuccesses bool
	required       int
}

func NewConcurrent[C any](countSuccesses bool, required int, children ...Node[C]) *Concurrent[C] {
	return &Concurrent[C]{children: children, countSuccesses: countSuccesses, required: required}
}

func (c *Concurrent[C]) Tick(ctx C) Status {
	target := StatusFailure
	if c.countSuccesses {
		target = StatusSuccess
	}
	count := 0
	for _, ch := range c.children {
		if ch.Tick(ctx) == target {
			count++
		}
	}
	if count >= c.required {
		return StatusSuccess
	}
	return StatusFailure
}

func priorityFactory[C any](_ C, p Params, children []Node[C]) (Node[C], error) {
	resume, err := p.Bool(0)
	if err != nil {
		return nil, err
	}
	// index 1 is reserved and ignored
	returnOnSuccess, err := p.BoolOr(2, false)
	if err != nil {
		return nil, err
	}
	return NewPriority(resume, returnOnSuccess, children...), nil
}

func sequenceFactory[C any](_ C, _ Params, children []Node[C]) (Node[C], error) {
	return NewSequence(children...), nil
}

func loopFactory[C any](_ C, p Params, children []Node[C]) (Node[C], error) {
	returnOnSuccess, err := p.Bool(0)
	if err != nil {
		return nil, err
	}
	return NewLoop(returnOnSuccess, children...), nil
}

func randomFactory[C any](_ C, p Params, children []Node[C]) (Node[C], error) {
	return NewRandom(p.Rand(), children...), nil
}

func concurrentFactory[C any](_ C, p Params, children []Node[C]) (Node[C], error) {
	countSuccesses, err := p.Bool(0)
	if err != nil {
		return nil, err
	}
	required, err := p.Int(1)
	if err != nil {
		return nil, err
	}
	return NewConcurrent(countSuccesses, required, children...), nil
}
