package process

import (
	"image"

	"gocv.io/x/gocv"
)

// FrameWindow holds the three most recent grayscale frames, oldest first.
type FrameWindow struct {
	frames [3]gocv.Mat
	seeded bool
}

func NewFrameWindow() *FrameWindow {
	w := &FrameWindow{}
	for i := range w.frames {
		w.frames[i] = gocv.NewMat()
	}
	return w
}

// Push converts frame to grayscale and inserts it as the newest frame,
// evicting the oldest. The first push fills every slot with the same frame
// so that differencing has a defined history from the start.
func (w *FrameWindow) Push(frame gocv.Mat) {
	// Reuse the evicted Mat for the incoming frame.
	oldest := w.frames[0]
	w.frames[0], w.frames[1] = w.frames[1], w.frames[2]
	w.frames[2] = oldest
	toGray(frame, &w.frames[2])

	if !w.seeded {
		w.frames[2].CopyTo(&w.frames[0])
		w.frames[2].CopyTo(&w.frames[1])
		w.seeded = true
	}
}

// Frames returns the oldest, middle and newest frames. They are overwritten
// by later calls to Push.
func (w *FrameWindow) Frames() (oldest, middle, newest gocv.Mat) {
	return w.frames[0], w.frames[1], w.frames[2]
}

func (w *FrameWindow) Close() {
	for _, m := range w.frames {
		m.Close()
	}
}

func toGray(src gocv.Mat, dst *gocv.Mat) {
	if src.Channels() == 1 {
		src.CopyTo(dst)
		return
	}
	gocv.CvtColor(src, dst, gocv.ColorBGRToGray)
}

// ThreeFrameDiff writes |newest-middle| AND |middle-oldest| to dst. Change
// seen in only one of the two steps is dropped. diff1 and diff2 are scratch
// space.
func ThreeFrameDiff(oldest, middle, newest gocv.Mat, diff1, diff2, dst *gocv.Mat) {
	gocv.AbsDiff(newest, middle, diff1)
	gocv.AbsDiff(middle, oldest, diff2)
	gocv.BitwiseAnd(*diff1, *diff2, dst)
}

// MotionDetector scores frames by the number of pixels that changed across
// the last three frames.
type MotionDetector struct {
	window *FrameWindow

	diff1, diff2, combined, mask gocv.Mat
	kernel                       gocv.Mat
}

func NewMotionDetector(kernelSize int) *MotionDetector {
	return &MotionDetector{
		window:   NewFrameWindow(),
		diff1:    gocv.NewMat(),
		diff2:    gocv.NewMat(),
		combined: gocv.NewMat(),
		mask:     gocv.NewMat(),
		kernel:   gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: kernelSize, Y: kernelSize}),
	}
}

// Detect folds frame into the window and returns the motion score: the
// count of pixels left after Otsu thresholding and erosion of the combined
// difference.
func (m *MotionDetector) Detect(frame gocv.Mat) int {
	m.window.Push(frame)
	oldest, middle, newest := m.window.Frames()
	ThreeFrameDiff(oldest, middle, newest, &m.diff1, &m.diff2, &m.combined)

	gocv.Threshold(m.combined, &m.mask, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gocv.Erode(m.mask, &m.mask, m.kernel)

	return gocv.CountNonZero(m.mask)
}

// Mask returns the thresholded, eroded image from the last call to Detect.
func (m *MotionDetector) Mask() gocv.Mat {
	return m.mask
}

func (m *MotionDetector) Close() error {
	m.window.Close()
	m.diff1.Close()
	m.diff2.Close()
	m.combined.Close()
	m.mask.Close()
	m.kernel.Close()
	return nil
}
