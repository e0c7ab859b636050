package bt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type testCtx struct {
	dt    float64
	trace []string
}

func (c *testCtx) DeltaTime() float64 { return c.dt }

// scripted yields its statuses in order and then repeats the last one.
type scripted struct {
	name  string
	seq   []Status
	calls int
}

func (s *scripted) Tick(ctx *testCtx) Status {
	ctx.trace = append(ctx.trace, s.name)
	i := s.calls
	if i >= len(s.seq) {
		i = len(s.seq) - 1
	}
	s.calls++
	return s.seq[i]
}

func leaf(name string, seq ...Status) *scripted {
	if len(seq) == 0 {
		seq = []Status{StatusSuccess}
	}
	return &scripted{name: name, seq: seq}
}

func statusToken(tok string) (Status, error) {
	switch tok {
	case "S":
		return StatusSuccess, nil
	case "F":
		return StatusFailure, nil
	case "R":
		return StatusRunning, nil
	default:
		return 0, fmt.Errorf("bad status token %q", tok)
	}
}

// fixture registers a "Leaf <name> [S|F|R ...]" tag whose instances are kept
// by name so tests can inspect them after a build.
type fixture struct {
	reg    *Registry[*testCtx]
	ctx    *testCtx
	leaves map[string]*scripted
}

func newFixture() *fixture {
	f := &fixture{
		reg:    NewRegistry[*testCtx](),
		ctx:    &testCtx{},
		leaves: make(map[string]*scripted),
	}
	f.reg.RegisterLeaf("Leaf", func(_ *testCtx, p Params) (Node[*testCtx], error) {
		name, err := p.String(0)
		if err != nil {
			return nil, err
		}
		var seq []Status
		for _, tok := range p.Raw()[1:] {
			st, err := statusToken(tok)
			if err != nil {
				return nil, err
			}
			seq = append(seq, st)
		}
		s := leaf(name, seq...)
		f.leaves[name] = s
		return s, nil
	})
	return f
}

func (f *fixture) build(t *testing.T, src string, opts ...Option) Node[*testCtx] {
	t.Helper()
	n, err := BuildString(f.reg, src, f.ctx, opts...)
	require.NoError(t, err)
	return n
}

// tick clears the trace and ticks n once.
func (f *fixture) tick(n Node[*testCtx]) Status {
	f.ctx.trace = f.ctx.trace[:0]
	return n.Tick(f.ctx)
}
