package util

import (
	"fmt"
	"os"
	"os/exec"
)

// FFmpegEnv overrides the ffmpeg binary found in $PATH.
const FFmpegEnv = "FFMPEG"

// LocateFFmpeg returns the path of the ffmpeg binary.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv(FFmpegEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%v: %w", FFmpegEnv, p, err)
		}
		return p, nil
	}
	return exec.LookPath("ffmpeg")
}
