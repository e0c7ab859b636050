// Package alien is a reference host for the bt runtime: an enemy that patrols
// left until the player is in range, then holds, dashes at the player and
// flies back to its base height.
package alien

import (
	_ "embed"
	"math"

	"github.com/zeusync/btree/internal/config"
)

// Document is the default alien behavior tree.
//
//go:embed alien.bt
var Document string

type Vec struct{ X, Y float64 }

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return v.Sub(o).Len() }

// Unit returns v scaled to length 1, or the zero vector.
func (v Vec) Unit() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return v.Scale(1 / l)
}

// Context is the per-alien world state shared by all leaves of one tree.
type Context struct {
	Position Vec
	Velocity Vec
	Player   Vec
	BaseY    float64
	Moving   bool

	MoveSpeed      float64
	AttackSpeed    float64
	AttackHoldTime float64
	Range          float64

	dt float64
}

func New(cfg config.Demo) *Context {
	return &Context{
		Position:       Vec{cfg.StartX, cfg.StartY},
		Player:         Vec{cfg.PlayerX, cfg.PlayerY},
		BaseY:          cfg.StartY,
		MoveSpeed:      cfg.MoveSpeed,
		AttackSpeed:    cfg.AttackSpeed,
		AttackHoldTime: cfg.AttackHoldTime,
		Range:          cfg.Range,
	}
}

// DeltaTime implements bt.DeltaTimer.
func (c *Context) DeltaTime() float64 { return c.dt }

// Integrate advances the simulation by dt seconds using the velocity set by the
// previous tick, and makes dt the delta seen by the next tick.
func Integrate(c *Context, dt float64) {
	c.dt = dt
	c.Position = c.Position.Add(c.Velocity.Scale(dt))
}
