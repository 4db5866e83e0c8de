package sim

// Driver is the fixed-timestep accumulator. Each Advance runs whole periods
// until the accumulated time is spent or MaxTicks have run; any whole
// periods left past the cap are discarded and the fractional remainder is
// carried into the next Advance.
type Driver struct {
	Period   float64
	MaxTicks int

	accum float64
}

func NewDriver(period float64, maxTicks int) *Driver {
	return &Driver{Period: period, MaxTicks: maxTicks}
}

// Advance adds elapsed seconds and calls step once per whole period. It
// returns how many ticks ran and how many were dropped by the cap.
func (d *Driver) Advance(elapsed float64, step func()) (ran, dropped int) {
	if d.Period <= 0 {
		return 0, 0
	}
	if elapsed > 0 {
		d.accum += elapsed
	}
	for d.accum >= d.Period {
		if d.MaxTicks > 0 && ran >= d.MaxTicks {
			dropped = int(d.accum / d.Period)
			d.accum -= float64(dropped) * d.Period
			break
		}
		d.accum -= d.Period
		step()
		ran++
	}
	return ran, dropped
}

// Remainder is the time carried into the next Advance.
func (d *Driver) Remainder() float64 {
	return d.accum
}
