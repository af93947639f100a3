package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateStabilizesAfterFrames(t *testing.T) {
	g := NewGate(50)

	for i := 0; i < 49; i++ {
		g.Advance()
		assert.False(t, g.Stabilized(), "frame %d", i)
	}
	g.Advance()
	assert.True(t, g.Stabilized())
	assert.Equal(t, 50, g.Count())

	// The counter stops at the threshold.
	g.Advance()
	assert.True(t, g.Stabilized())
	assert.Equal(t, 50, g.Count())
}

func TestGateReset(t *testing.T) {
	g := NewGate(3)
	g.Advance()
	g.Advance()
	g.Advance()
	assert.True(t, g.Stabilized())

	g.Reset()
	assert.False(t, g.Stabilized())
	assert.Equal(t, 0, g.Count())

	g.Advance()
	g.Advance()
	assert.False(t, g.Stabilized())
	g.Advance()
	assert.True(t, g.Stabilized())
}

func TestGateStartsUnstabilized(t *testing.T) {
	g := NewGate(1)
	assert.False(t, g.Stabilized())
	g.Advance()
	assert.True(t, g.Stabilized())
}
