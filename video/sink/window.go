package sink

import (
	"time"

	"gocv.io/x/gocv"
)

type Window struct {
	window  *gocv.Window
	sizeSet bool
}

func NewWindow(name string) *Window {
	return &Window{
		window: gocv.NewWindow(name),
	}
}

func (w *Window) Show(img gocv.Mat) {
	if img.Empty() {
		return
	}
	if !w.sizeSet {
		w.window.ResizeWindow(img.Cols(), img.Rows())
		w.sizeSet = true
	}
	w.window.IMShow(img)
}

func (w *Window) WaitKey(delayMS int) int {
	return w.window.WaitKey(delayMS)
}

func (w *Window) Close() error {
	return w.window.Close()
}

// Headless is a Display for machines without a screen. WaitKey only sleeps,
// so the loop can only be stopped by cancelling its context.
type Headless struct{}

func (Headless) Show(gocv.Mat) {}

func (Headless) WaitKey(delayMS int) int {
	time.Sleep(time.Duration(delayMS) * time.Millisecond)
	return KeyNone
}

func (Headless) Close() error { return nil }
