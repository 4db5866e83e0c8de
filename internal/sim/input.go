package sim

import (
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
)

// Input is the held state of one entity's controls for a tick. Buttons are
// levels; the simulation derives rising edges against the previous tick.
// AimX and AimY are a world position.
type Input struct {
	MoveX, MoveY float64
	AimX, AimY   float64

	Fire   bool
	Reload bool
	Use    bool
	Pickup bool
	Drop   bool
	Dash   bool
}

// Pressed holds the rising edges of an Input.
type Pressed struct {
	Fire   bool
	Reload bool
	Use    bool
	Pickup bool
	Drop   bool
	Dash   bool
}

func edges(prev, cur Input) Pressed {
	return Pressed{
		Fire:   cur.Fire && !prev.Fire,
		Reload: cur.Reload && !prev.Reload,
		Use:    cur.Use && !prev.Use,
		Pickup: cur.Pickup && !prev.Pickup,
		Drop:   cur.Drop && !prev.Drop,
		Dash:   cur.Dash && !prev.Dash,
	}
}

func (in Input) motion(p Pressed) entity.Motion {
	return entity.Motion{MoveX: in.MoveX, MoveY: in.MoveY, Dash: p.Dash}
}

// InputSource supplies player inputs for a tick. Entities without an entry
// idle for that tick.
type InputSource func(tick uint64) map[handle.Handle]Input

// intent is one entity's resolved input for the current tick.
type intent struct {
	handle  handle.Handle
	input   Input
	pressed Pressed
}
