package source

import (
	"context"
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Image is a captured frame and the time it was read.
type Image struct {
	Mat  gocv.Mat
	Time time.Time
}

// Source defines a stream of images, such as a camera.
type Source interface {
	// NextFrame blocks until the next frame has been read into dst. It returns
	// io.EOF once the stream has ended and ctx.Err() if ctx is cancelled
	// first.
	NextFrame(ctx context.Context, dst *gocv.Mat) error

	// Size returns the size of the capture source.
	Size() image.Point

	// Close disconnects from the capture source and frees up all resources.
	Close() error
}

// Recordable is a source which can write its own stream to a file.
type Recordable interface {
	// StartRecording begins writing frames to path.
	StartRecording(path string) error

	// WaitRecording records for d, or until ctx is cancelled.
	WaitRecording(ctx context.Context, d time.Duration) error

	// StopRecording finalizes the file started by StartRecording.
	StopRecording() error
}

// Camera is a source that can record.
type Camera interface {
	Source
	Recordable
}
