// Package motion computes where the claw is. Horizontal position sweeps
// back and forth while the player lines up a drop; vertical position runs
// down to the floor and back up once the player commits.
//
// Both axes are percentages of the cabinet: X in [0,100], Y in
// [0,DropLimit] where 0 is fully raised.
package motion

import "time"

type Params struct {
	SweepStep float64 // per frame
	SweepMin  float64
	SweepMax  float64
	DropStep  float64 // per tick
	DropLimit float64
	RaiseStep float64 // per tick
	Frame     time.Duration
	Tick      time.Duration
}

func DefaultParams() Params {
	return Params{
		SweepStep: 1.6,
		SweepMin:  0,
		SweepMax:  92,
		DropStep:  5,
		DropLimit: 82,
		RaiseStep: 4,
		Frame:     16 * time.Millisecond,
		Tick:      16 * time.Millisecond,
	}
}

// withDefaults fills any zero field from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.SweepStep <= 0 {
		p.SweepStep = d.SweepStep
	}
	if p.SweepMax <= p.SweepMin {
		p.SweepMin, p.SweepMax = d.SweepMin, d.SweepMax
	}
	if p.DropStep <= 0 {
		p.DropStep = d.DropStep
	}
	if p.DropLimit <= 0 {
		p.DropLimit = d.DropLimit
	}
	if p.RaiseStep <= 0 {
		p.RaiseStep = d.RaiseStep
	}
	if p.Frame <= 0 {
		p.Frame = d.Frame
	}
	if p.Tick <= 0 {
		p.Tick = d.Tick
	}
	return p
}

type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

type Position struct {
	X float64
	Y float64
}

// Sweep advances x by one frame. The direction flips at the bounds before
// the step is applied, so the claw overshoots SweepMax by at most one step.
func (p Params) Sweep(x float64, dir Direction) (float64, Direction) {
	if x >= p.SweepMax {
		dir = Left
	}
	if x <= p.SweepMin {
		dir = Right
	}
	return clamp(x+p.SweepStep*float64(dir), 0, 100), dir
}

// Drop lowers y by one tick and reports whether the floor was reached.
func (p Params) Drop(y float64) (float64, bool) {
	y += p.DropStep
	if y >= p.DropLimit {
		return p.DropLimit, true
	}
	return y, false
}

// Raise lifts y by one tick and reports whether the top was reached.
func (p Params) Raise(y float64) (float64, bool) {
	y -= p.RaiseStep
	if y <= 0 {
		return 0, true
	}
	return y, false
}

// Claw carries the position between ticks for one machine.
type Claw struct {
	params Params
	pos    Position
	dir    Direction
}

func NewClaw(p Params) *Claw {
	return &Claw{params: p.withDefaults(), dir: Right}
}

func (c *Claw) Params() Params { return c.params }

func (c *Claw) Position() Position { return c.pos }

func (c *Claw) Direction() Direction { return c.dir }

// Reset parks the claw at the top-left corner heading right.
func (c *Claw) Reset() {
	c.pos = Position{}
	c.dir = Right
}

func (c *Claw) Sweep() {
	c.pos.X, c.dir = c.params.Sweep(c.pos.X, c.dir)
}

// Lower moves the claw one tick down. It returns true only on the tick
// that lands on the floor; further calls leave the claw where it is.
func (c *Claw) Lower() bool {
	if c.pos.Y >= c.params.DropLimit {
		return false
	}
	var landed bool
	c.pos.Y, landed = c.params.Drop(c.pos.Y)
	return landed
}

// Lift moves the claw one tick up. It returns true only on the tick that
// reaches the top.
func (c *Claw) Lift() bool {
	if c.pos.Y <= 0 {
		return false
	}
	var top bool
	c.pos.Y, top = c.params.Raise(c.pos.Y)
	return top
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
