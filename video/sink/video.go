package sink

import (
	"fmt"

	"motioncam/video/source"

	"gocv.io/x/gocv"
)

// Video provides a sink that wraps opencv's VideoWriter. Files are MJPG in an
// avi container, which is larger than the ffmpeg output but needs no external
// binary.
type Video struct {
	writer *gocv.VideoWriter
}

func NewVideo(path string, fps int, width, height int) (*Video, error) {
	w, err := gocv.VideoWriterFile(path, "MJPG", float64(fps), width, height, true)
	if err != nil {
		return nil, err
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("failed to open video writer for %v", path)
	}
	return &Video{
		writer: w,
	}, nil
}

func (v *Video) Close() error {
	return v.writer.Close()
}

func (v *Video) Put(input source.Image) error {
	return v.writer.Write(input.Mat)
}
