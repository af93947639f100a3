package process

// Gate suppresses triggers until a number of frames have been seen since it
// was created or last reset.
type Gate struct {
	frames     int
	count      int
	stabilized bool
}

func NewGate(frames int) *Gate {
	return &Gate{frames: frames}
}

// Advance counts one frame.
func (g *Gate) Advance() {
	if g.count < g.frames {
		g.count++
	}
	if g.count >= g.frames {
		g.stabilized = true
	}
}

func (g *Gate) Stabilized() bool {
	return g.stabilized
}

func (g *Gate) Count() int {
	return g.count
}

// Reset starts stabilization over, e.g. after a recording.
func (g *Gate) Reset() {
	g.count = 0
	g.stabilized = false
}
