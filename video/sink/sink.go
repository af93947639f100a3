package sink

import (
	"motioncam/video/source"

	"gocv.io/x/gocv"
)

// Sink defines a destination for a stream of images, such as a video file.
type Sink interface {
	// Put inserts an image to the sink. The caller *must not* modify this image
	// and it should not hold any references to the underlying Mat.
	Put(input source.Image) error

	// Close should be called to finalize the Sink.
	Close() error
}

// KeyEscape is the key code WaitKey reports for the escape key.
const KeyEscape = 27

// KeyNone is returned by WaitKey when no key was pressed.
const KeyNone = -1

// Display shows debug images and reports key presses.
type Display interface {
	Show(img gocv.Mat)

	// WaitKey waits up to delayMS milliseconds for a key press and returns its
	// code, or KeyNone.
	WaitKey(delayMS int) int

	Close() error
}
