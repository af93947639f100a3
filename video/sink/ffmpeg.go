package sink

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"

	"motioncam/video/source"

	log "github.com/sirupsen/logrus"
)

type FFmpegOptions struct {
	// Path of the ffmpeg binary.
	Path string
	Size image.Point
	FPS  int
}

// FFmpegSink pipes raw BGR frames into an ffmpeg process which encodes them
// to an h264 mp4 file.
type FFmpegSink struct {
	path string
	cmd  *exec.Cmd
	pipe io.WriteCloser
}

func NewFFmpegSink(path string, opts FFmpegOptions) (*FFmpegSink, error) {
	c := exec.Command(
		opts.Path,
		// Configure ffmpeg to read from the opencv pipe.
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-", // Read from stdin.
		// Use h264 encoding with reasonable quality and speed. Note that
		// "preset" can be adjusted if the system is too slow to handle encoding.
		"-c:v", "libx264",
		"-preset", "superfast",
		"-crf", "30",
		"-pix_fmt", "yuv420p",
		// Enable fast-start so videos can be displayed in the browser without
		// full download.
		"-movflags", "+faststart",
		"-loglevel", "error",
		"-y",
		path,
	)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	pipe, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("error getting ffmpeg stdin: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("error starting ffmpeg: %w", err)
	}
	return &FFmpegSink{
		path: path,
		cmd:  c,
		pipe: pipe,
	}, nil
}

func (f *FFmpegSink) Put(input source.Image) error {
	if _, err := f.pipe.Write(input.Mat.ToBytes()); err != nil {
		return fmt.Errorf("error writing to ffmpeg for %v: %w", f.path, err)
	}
	return nil
}

func (f *FFmpegSink) Close() error {
	f.pipe.Close()
	log.Debugf("Waiting for ffmpeg shutdown")
	if err := f.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg exited for %v: %w", f.path, err)
	}
	return nil
}
