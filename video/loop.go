package video

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"motioncam/metrics"
	"motioncam/video/process"
	"motioncam/video/sink"
	"motioncam/video/source"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Detector scores the motion in each frame.
type Detector interface {
	Detect(frame gocv.Mat) int
	// Mask returns the debug image of the last Detect call.
	Mask() gocv.Mat
	Close() error
}

type LoopOptions struct {
	// PercentMotion of the frame area that must change to trigger.
	PercentMotion   float64
	StabilizeFrames int
	QuitKey         int
}

// Loop is the capture-process-decide loop and all of its state. It owns the
// camera, detector and display and releases them in Close.
type Loop struct {
	camera   source.Source
	detector Detector
	gate     *process.Gate
	recorder *Recorder
	display  sink.Display
	streams  *sink.MJPEGStreamPool

	threshold float64
	quitKey   int

	frame     gocv.Mat
	closeOnce sync.Once
}

func NewLoop(camera source.Source, detector Detector, recorder *Recorder, display sink.Display, opts LoopOptions) *Loop {
	size := camera.Size()
	l := &Loop{
		camera:    camera,
		detector:  detector,
		gate:      process.NewGate(opts.StabilizeFrames),
		recorder:  recorder,
		display:   display,
		threshold: float64(size.X*size.Y) * opts.PercentMotion,
		quitKey:   opts.QuitKey,
		frame:     gocv.NewMat(),
	}
	if size.X <= 0 || size.Y <= 0 {
		log.Warnf("Camera reports a %dx%d frame; every changed pixel will trigger a recording", size.X, size.Y)
	}
	metrics.MotionThreshold.Set(l.threshold)
	log.Infof("Motion threshold is %.1f pixels of %dx%d", l.threshold, size.X, size.Y)
	return l
}

// SetStreams publishes the raw and mask images of each iteration.
func (l *Loop) SetStreams(p *sink.MJPEGStreamPool) {
	l.streams = p
}

func (l *Loop) Threshold() float64 {
	return l.threshold
}

func (l *Loop) Gate() *process.Gate {
	return l.gate
}

// Run iterates until the quit key is pressed, the stream ends or ctx is
// cancelled, which all return nil. Errors reading the camera or writing a
// recording are returned. Resources are released before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	log.Info("Reading frames")
	for {
		done, err := l.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step runs a single iteration and reports whether the loop should stop.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	if err := l.camera.NextFrame(ctx, &l.frame); err != nil {
		if errors.Is(err, io.EOF) {
			log.Info("End of stream")
			return true, nil
		}
		if ctx.Err() != nil {
			log.Infof("Stopping: %v", ctx.Err())
			return true, nil
		}
		return false, err
	}
	now := time.Now()
	metrics.FramesTotal.Inc()

	score := l.detector.Detect(l.frame)
	metrics.MotionScore.Set(float64(score))
	log.Debugf("White pixel count: %d", score)

	motion := l.gate.Stabilized() && float64(score) > l.threshold
	manual := l.recorder.Requested()
	if motion || manual {
		if motion {
			log.Infof("Motion detected: %d > %.1f", score, l.threshold)
		} else {
			log.Info("Manual trigger")
		}
		if _, err := l.recorder.Record(ctx, source.Image{Mat: l.frame, Time: now}, score, !motion); err != nil {
			return false, err
		}
		l.gate.Reset()
	} else {
		l.gate.Advance()
	}
	metrics.Stabilized.Set(metrics.Bool(l.gate.Stabilized()))

	mask := l.detector.Mask()
	if l.streams != nil {
		l.streams.Put("raw", l.frame)
		l.streams.Put("mask", mask)
	}
	l.display.Show(mask)
	if key := l.display.WaitKey(1); key == l.quitKey {
		log.Info("Quit key pressed")
		return true, nil
	}
	if ctx.Err() != nil {
		log.Infof("Stopping: %v", ctx.Err())
		return true, nil
	}
	return false, nil
}

// Close releases the camera, the display and the detector. It is safe to call
// more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		if err := l.camera.Close(); err != nil {
			log.Errorf("Failed to close camera: %v", err)
		}
		if err := l.display.Close(); err != nil {
			log.Errorf("Failed to close display: %v", err)
		}
		if err := l.detector.Close(); err != nil {
			log.Errorf("Failed to close detector: %v", err)
		}
		if l.streams != nil {
			l.streams.Close()
		}
		l.frame.Close()
	})
}
