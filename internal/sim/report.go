package sim

// Report is what one Step produced. It is read by the caller after the tick
// and never consulted by the simulation itself.
type Report struct {
	Tick uint64

	Shots   int
	Pellets int
	Hits    int
	Kills   int
	Deaths  int

	Sounds   []string
	Shake    float64
	Messages []string

	Transition bool
	HookCapHit bool
}

// Screen shake contributed by player-facing events.
const activeReloadShake = 3
