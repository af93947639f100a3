package sink

import (
	"testing"
	"time"

	"motioncam/video/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type countingSink struct {
	times  []time.Time
	closed int
}

func (s *countingSink) Put(input source.Image) error {
	s.times = append(s.times, input.Time)
	return nil
}

func (s *countingSink) Close() error {
	s.closed++
	return nil
}

func TestFPSNormalize(t *testing.T) {
	cs := &countingSink{}
	f := NewFPSNormalize(cs, 10)

	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer m.Close()

	start := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	put := func(offset time.Duration) {
		require.NoError(t, f.Put(source.Image{Mat: m, Time: start.Add(offset)}))
	}

	put(0)
	// Too early for the next 100ms slot; dropped.
	put(50 * time.Millisecond)
	put(100 * time.Millisecond)
	// A 300ms gap repeats the last frame to fill the missing slots.
	put(400 * time.Millisecond)

	assert.Equal(t, []time.Time{
		start,
		start.Add(100 * time.Millisecond),
		start.Add(200 * time.Millisecond),
		start.Add(300 * time.Millisecond),
		start.Add(400 * time.Millisecond),
	}, cs.times)

	require.NoError(t, f.Close())
	assert.Equal(t, 1, cs.closed)
}

func emptyMat() gocv.Mat {
	return gocv.NewMat()
}
