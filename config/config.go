package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const (
	EncoderFFmpeg = "ffmpeg"
	EncoderOpenCV = "opencv"
)

type Config struct {
	// Device is either a camera index ("0") or a file / stream URI.
	Device string
	Width  int
	Height int
	FPS    int

	// PercentMotion is the fraction of the frame that must change before a
	// recording is triggered, e.g. 0.0025 for 0.25%.
	PercentMotion   float64
	KernelSize      int
	StabilizeFrames int
	RecordTimeSec   int
	OutputDir       string
	Encoder         string
	// Previews makes a short sped up clip of each recording. Requires ffmpeg.
	Previews        bool

	Headless   bool
	WindowName string
	QuitKey    int

	// Listen enables the status server when non-empty, e.g. ":8080".
	Listen string

	// DatabaseDSN enables the MySQL recording catalog and web push.
	DatabaseDSN            string
	PushSubscriber         string
	NotificationHoursStart int
	NotificationHoursEnd   int
}

// Default returns the configuration used when no file is given. Recordings
// are written to <home>/recordings.
func Default(home string) *Config {
	return &Config{
		Device:                 "0",
		Width:                  1024,
		Height:                 720,
		FPS:                    25,
		PercentMotion:          0.0025,
		KernelSize:             3,
		StabilizeFrames:        50,
		RecordTimeSec:          20,
		OutputDir:              filepath.Join(home, "recordings"),
		Encoder:                EncoderFFmpeg,
		Previews:               true,
		WindowName:             "Thresholded image",
		QuitKey:                27,
		NotificationHoursStart: 6,
		NotificationHoursEnd:   20,
	}
}

func (c *Config) RecordTime() time.Duration {
	return time.Duration(c.RecordTimeSec) * time.Second
}

// Ext is the file extension of recordings produced by the configured encoder.
func (c *Config) Ext() string {
	if c.Encoder == EncoderOpenCV {
		return ".avi"
	}
	return ".mp4"
}

// ContentType is the MIME type of recordings.
func (c *Config) ContentType() string {
	if c.Encoder == EncoderOpenCV {
		return "video/x-msvideo"
	}
	return "video/mp4"
}

func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("device must be set")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.PercentMotion <= 0 || c.PercentMotion >= 1 {
		return fmt.Errorf("percent motion %v should be in range (0, 1)", c.PercentMotion)
	}
	if c.KernelSize < 1 {
		return fmt.Errorf("invalid kernel size %d", c.KernelSize)
	}
	if c.StabilizeFrames < 1 {
		return fmt.Errorf("stabilize frames should be at least 1, got %d", c.StabilizeFrames)
	}
	// Recording blocks for at least a second, which keeps second-granularity
	// file names unique.
	if c.RecordTimeSec < 1 {
		return fmt.Errorf("record time should be at least 1s, got %ds", c.RecordTimeSec)
	}
	if c.OutputDir == "" {
		return errors.New("output dir must be set")
	}
	if c.Encoder != EncoderFFmpeg && c.Encoder != EncoderOpenCV {
		return fmt.Errorf("unknown encoder %q", c.Encoder)
	}
	if c.NotificationHoursStart < 0 || c.NotificationHoursEnd > 24 || c.NotificationHoursStart > c.NotificationHoursEnd {
		return fmt.Errorf("invalid notification hours %d-%d", c.NotificationHoursStart, c.NotificationHoursEnd)
	}
	return nil
}
