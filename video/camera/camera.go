// Package camera implements source.Camera on top of an OpenCV capture
// device. Recording reads frames from the same device and writes them to a
// sink, so no motion detection runs while a recording is in progress.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"time"

	"motioncam/video/process"
	"motioncam/video/sink"
	"motioncam/video/source"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// maxReadFailures is the number of consecutive failed reads from a live
// device before the stream is considered ended.
const maxReadFailures = 100

// SinkFunc opens a sink writing to path.
type SinkFunc func(path string, size image.Point, fps int) (sink.Sink, error)

type Options struct {
	Device string
	Width  int
	Height int
	FPS    int

	// NewSink creates the recording file for StartRecording.
	NewSink SinkFunc
}

type VideoCapture struct {
	opts Options
	cap  *gocv.VideoCapture
	size image.Point
	// file sources end at the first failed read; live ones are retried.
	file bool

	rec   sink.Sink
	frame gocv.Mat
}

// Open opens the capture device. Numeric devices are camera indexes; anything
// else is treated as a file or stream URI.
func Open(opts Options) (*VideoCapture, error) {
	var device interface{} = opts.Device
	id, err := strconv.Atoi(opts.Device)
	isIndex := err == nil
	if isIndex {
		device = id
	}

	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture %v: %w", opts.Device, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video capture %v is not available", opts.Device)
	}

	if isIndex {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
		cap.Set(gocv.VideoCaptureFPS, float64(opts.FPS))
	}

	v := &VideoCapture{
		opts: opts,
		cap:  cap,
		file: !isIndex && !strings.Contains(opts.Device, "://"),
		size: frameSize(
			int(cap.Get(gocv.VideoCaptureFrameWidth)),
			int(cap.Get(gocv.VideoCaptureFrameHeight)),
			opts,
		),
		frame: gocv.NewMat(),
	}
	if v.size.X != opts.Width || v.size.Y != opts.Height {
		log.Warnf("Requested %dx%d from %v, got %dx%d", opts.Width, opts.Height, opts.Device, v.size.X, v.size.Y)
	}
	log.Infof("Opened video capture %v at %dx%d", opts.Device, v.size.X, v.size.Y)
	return v, nil
}

// frameSize is the size reported by the backend, or the requested size for
// backends that report nothing before the first read.
func frameSize(width, height int, opts Options) image.Point {
	if width <= 0 || height <= 0 {
		log.Warnf("Capture %v reports no frame size, assuming %dx%d", opts.Device, opts.Width, opts.Height)
		return image.Point{X: opts.Width, Y: opts.Height}
	}
	return image.Point{X: width, Y: height}
}

func (v *VideoCapture) Size() image.Point {
	return v.size
}

func (v *VideoCapture) NextFrame(ctx context.Context, dst *gocv.Mat) error {
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok := v.cap.Read(dst); ok && !dst.Empty() {
			return nil
		}
		if v.file {
			return io.EOF
		}
		failures++
		if failures >= maxReadFailures {
			log.Errorf("Giving up on %v after %d failed reads", v.opts.Device, failures)
			return io.EOF
		}
		log.Debugf("Read failure from %v", v.opts.Device)
		time.Sleep(time.Millisecond)
	}
}

func (v *VideoCapture) StartRecording(path string) error {
	if v.rec != nil {
		return errors.New("already recording")
	}
	s, err := v.opts.NewSink(path, v.size, v.opts.FPS)
	if err != nil {
		return fmt.Errorf("failed to create recording %v: %w", path, err)
	}
	// Ensure video is output with constant FPS.
	v.rec = sink.NewFPSNormalize(s, v.opts.FPS)
	log.Infof("Recording started: %v", path)
	return nil
}

// WaitRecording copies frames from the device into the recording until d has
// elapsed. Cancelling ctx or the end of the stream cuts it short.
func (v *VideoCapture) WaitRecording(ctx context.Context, d time.Duration) error {
	if v.rec == nil {
		return errors.New("not recording")
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	for {
		err := v.NextFrame(ctx, &v.frame)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		img := source.Image{Mat: v.frame, Time: time.Now()}
		process.DrawTimestamp(img)
		if err := v.rec.Put(img); err != nil {
			return err
		}
	}
}

func (v *VideoCapture) StopRecording() error {
	if v.rec == nil {
		return errors.New("not recording")
	}
	err := v.rec.Close()
	v.rec = nil
	log.Infof("Recording stopped")
	return err
}

func (v *VideoCapture) Close() error {
	if v.rec != nil {
		if err := v.StopRecording(); err != nil {
			log.Errorf("Failed to stop recording on close: %v", err)
		}
	}
	v.frame.Close()
	return v.cap.Close()
}

// FFmpegSinkFunc records h264 mp4 files through the ffmpeg binary at path.
func FFmpegSinkFunc(ffmpeg string) SinkFunc {
	return func(path string, size image.Point, fps int) (sink.Sink, error) {
		return sink.NewFFmpegSink(path, sink.FFmpegOptions{
			Path: ffmpeg,
			Size: size,
			FPS:  fps,
		})
	}
}

// OpenCVSinkFunc records MJPG avi files through OpenCV.
func OpenCVSinkFunc() SinkFunc {
	return func(path string, size image.Point, fps int) (sink.Sink, error) {
		return sink.NewVideo(path, fps, size.X, size.Y)
	}
}
