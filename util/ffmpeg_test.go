package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFFmpegFromEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0755))
	t.Setenv(FFmpegEnv, p)

	got, err := LocateFFmpeg()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestLocateFFmpegMissingEnvPath(t *testing.T) {
	t.Setenv(FFmpegEnv, filepath.Join(t.TempDir(), "nope"))

	_, err := LocateFFmpeg()
	assert.Error(t, err)
}

func TestLocateFFmpegFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0755))
	t.Setenv(FFmpegEnv, "")
	t.Setenv("PATH", dir)

	got, err := LocateFFmpeg()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
