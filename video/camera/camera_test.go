package camera

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"motioncam/video/sink"
	"motioncam/video/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// writeClip writes n solid frames to an MJPG avi and returns its path.
func writeClip(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")
	v, err := sink.NewVideo(path, 10, 64, 48)
	require.NoError(t, err)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 100, 150, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer m.Close()
	for i := 0; i < n; i++ {
		require.NoError(t, v.Put(source.Image{Mat: m, Time: time.Now()}))
	}
	require.NoError(t, v.Close())
	return path
}

func openClip(t *testing.T, path string) *VideoCapture {
	t.Helper()
	v, err := Open(Options{
		Device:  path,
		Width:   64,
		Height:  48,
		FPS:     10,
		NewSink: OpenCVSinkFunc(),
	})
	require.NoError(t, err)
	return v
}

func TestReadClipUntilEOF(t *testing.T) {
	v := openClip(t, writeClip(t, 10))
	defer v.Close()

	assert.Equal(t, 64, v.Size().X)
	assert.Equal(t, 48, v.Size().Y)

	frame := gocv.NewMat()
	defer frame.Close()
	n := 0
	for {
		err := v.NextFrame(context.Background(), &frame)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 10, n)
}

func TestNextFrameCancelled(t *testing.T) {
	v := openClip(t, writeClip(t, 3))
	defer v.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frame := gocv.NewMat()
	defer frame.Close()
	assert.ErrorIs(t, v.NextFrame(ctx, &frame), context.Canceled)
}

func TestRecordClip(t *testing.T) {
	v := openClip(t, writeClip(t, 10))
	defer v.Close()

	out := filepath.Join(t.TempDir(), "out.avi")
	require.NoError(t, v.StartRecording(out))
	assert.Error(t, v.StartRecording(out))
	// The clip ends long before the minute is up.
	require.NoError(t, v.WaitRecording(context.Background(), time.Minute))
	require.NoError(t, v.StopRecording())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestRecordingCallsOutOfOrder(t *testing.T) {
	v := openClip(t, writeClip(t, 1))
	defer v.Close()

	assert.Error(t, v.WaitRecording(context.Background(), time.Second))
	assert.Error(t, v.StopRecording())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(Options{Device: filepath.Join(t.TempDir(), "missing.avi")})
	assert.Error(t, err)
}

func TestFrameSizeFallsBackToRequested(t *testing.T) {
	opts := Options{Device: "0", Width: 1024, Height: 720}

	assert.Equal(t, image.Point{X: 640, Y: 480}, frameSize(640, 480, opts))
	assert.Equal(t, image.Point{X: 1024, Y: 720}, frameSize(0, 0, opts))
	assert.Equal(t, image.Point{X: 1024, Y: 720}, frameSize(640, 0, opts))
}
