package alien

import (
	"math"

	"github.com/zeusync/btree/internal/core/bt"
)

// Register adds the alien leaves to reg.
func Register(reg *bt.Registry[*Context]) {
	reg.RegisterLeaf("InRange", bt.Leaf(inRange))
	reg.RegisterLeaf("MoveLeft", bt.Leaf(moveLeft))
	reg.RegisterLeaf("Hold", func(*Context, bt.Params) (bt.Node[*Context], error) { return &hold{}, nil })
	reg.RegisterLeaf("Attack", func(*Context, bt.Params) (bt.Node[*Context], error) { return &attack{}, nil })
	reg.RegisterLeaf("Return", func(*Context, bt.Params) (bt.Node[*Context], error) { return &returnToBase{}, nil })
}

// Tags lists the leaf tags installed by Register.
func Tags() []string {
	return []string{"InRange", "MoveLeft", "Hold", "Attack", "Return"}
}

func inRange(c *Context) bt.Status {
	if math.Abs(c.Position.X-c.Player.X) < c.Range {
		return bt.StatusSuccess
	}
	return bt.StatusFailure
}

func moveLeft(c *Context) bt.Status {
	c.Velocity = Vec{-c.MoveSpeed, 0}
	c.Moving = true
	return bt.StatusSuccess
}

// hold stands still for AttackHoldTime seconds.
type hold struct {
	started bool
	waited  float64
}

func (h *hold) Tick(c *Context) bt.Status {
	if !h.started {
		h.waited = 0
		h.started = true
	}
	c.Velocity = Vec{}
	c.Moving = false
	if h.waited > c.AttackHoldTime {
		h.started = false
		return bt.StatusSuccess
	}
	h.waited += c.DeltaTime()
	return bt.StatusRunning
}

// travel moves along a fixed direction for a fixed time computed on the first
// tick of each run. A run fails at once when speed is not positive.
type travel struct {
	started bool
	dir     Vec
	left    float64
}

func (tr *travel) step(c *Context, speed float64, plan func() Vec) bt.Status {
	if !tr.started {
		if speed <= 0 {
			c.Velocity = Vec{}
			c.Moving = false
			return bt.StatusFailure
		}
		d := plan()
		tr.left = d.Len() / speed
		tr.dir = d.Unit()
		tr.started = true
	}
	c.Moving = true
	if tr.left <= 0 {
		tr.started = false
		return bt.StatusSuccess
	}
	tr.left -= c.DeltaTime()
	c.Velocity = tr.dir.Scale(speed)
	return bt.StatusRunning
}

// attack dashes to where the player stood when the attack started.
type attack struct{ travel }

func (a *attack) Tick(c *Context) bt.Status {
	return a.step(c, c.AttackSpeed, func() Vec { return c.Player.Sub(c.Position) })
}

// returnToBase climbs back to BaseY while drifting left.
type returnToBase struct{ travel }

func (r *returnToBase) Tick(c *Context) bt.Status {
	return r.step(c, c.MoveSpeed, func() Vec {
		dy := c.BaseY - c.Position.Y
		return Vec{-1.5 * math.Abs(dy), dy}
	})
}
