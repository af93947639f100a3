package video

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"motioncam/video/sink"

	"gocv.io/x/gocv"
)

// fakeCamera yields frames (or blank reads when frames is nil) and records
// the recording calls made against it.
type fakeCamera struct {
	size      image.Point
	frames    []gocv.Mat
	remaining int

	started  []string
	waits    []time.Duration
	stopped  int
	closed   int
	startErr error
	// onWait runs inside WaitRecording.
	onWait   func()
}

func newFakeCamera(width, height, reads int) *fakeCamera {
	return &fakeCamera{
		size:      image.Point{X: width, Y: height},
		remaining: reads,
	}
}

func (c *fakeCamera) NextFrame(ctx context.Context, dst *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.frames != nil {
		if len(c.frames) == 0 {
			return io.EOF
		}
		c.frames[0].CopyTo(dst)
		c.frames[0].Close()
		c.frames = c.frames[1:]
		return nil
	}
	if c.remaining == 0 {
		return io.EOF
	}
	c.remaining--
	return nil
}

func (c *fakeCamera) Size() image.Point { return c.size }

func (c *fakeCamera) StartRecording(path string) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.started = append(c.started, path)
	return nil
}

func (c *fakeCamera) WaitRecording(ctx context.Context, d time.Duration) error {
	c.waits = append(c.waits, d)
	if c.onWait != nil {
		c.onWait()
	}
	return nil
}

func (c *fakeCamera) StopRecording() error {
	c.stopped++
	return nil
}

func (c *fakeCamera) Close() error {
	c.closed++
	for _, f := range c.frames {
		f.Close()
	}
	c.frames = nil
	return nil
}

// scriptedDetector returns scores in order, then zero.
type scriptedDetector struct {
	scores []int
	mask   gocv.Mat
	closed int
}

func newScriptedDetector(scores ...int) *scriptedDetector {
	return &scriptedDetector{scores: scores, mask: gocv.NewMat()}
}

func (d *scriptedDetector) Detect(gocv.Mat) int {
	if len(d.scores) == 0 {
		return 0
	}
	s := d.scores[0]
	d.scores = d.scores[1:]
	return s
}

func (d *scriptedDetector) Mask() gocv.Mat { return d.mask }

func (d *scriptedDetector) Close() error {
	d.closed++
	return d.mask.Close()
}

// fakeDisplay returns quitAt's key on the given WaitKey call (1-based).
type fakeDisplay struct {
	shown  int
	waits  int
	quitAt int
	key    int
	closed int
}

func (d *fakeDisplay) Show(gocv.Mat) { d.shown++ }

func (d *fakeDisplay) WaitKey(delayMS int) int {
	d.waits++
	if d.quitAt > 0 && d.waits == d.quitAt {
		return d.key
	}
	return sink.KeyNone
}

func (d *fakeDisplay) Close() error {
	d.closed++
	return nil
}

var errNoDisk = errors.New("no space left on device")
