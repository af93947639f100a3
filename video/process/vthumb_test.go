package process

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes a script that creates its last argument.
func fakeFFmpeg(t *testing.T, exit int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor a; do last=\"$a\"; done\necho preview > \"$last\"\nexit " + string(rune('0'+exit)) + "\n"
	require.NoError(t, os.WriteFile(p, []byte(script), 0755))
	return p
}

func waitDone(t *testing.T, c <-chan bool) bool {
	t.Helper()
	require.NotNil(t, c)
	select {
	case ok := <-c:
		return ok
	case <-time.After(5 * time.Second):
		t.Fatal("conversion did not finish")
		return false
	}
}

func TestVThumbProducer(t *testing.T) {
	f := NewVThumbProducer(fakeFFmpeg(t, 0))
	defer f.Close()

	dst := filepath.Join(t.TempDir(), "20261017_14h03m09s_vthumb.mp4")
	assert.True(t, waitDone(t, f.Process("in.mp4", dst)))
	assert.FileExists(t, dst)
	assert.NoFileExists(t, dst+ExtTemp)
}

func TestVThumbProducerFailure(t *testing.T) {
	f := NewVThumbProducer(fakeFFmpeg(t, 1))
	defer f.Close()

	dst := filepath.Join(t.TempDir(), "20261017_14h03m09s_vthumb.mp4")
	assert.False(t, waitDone(t, f.Process("in.mp4", dst)))
	assert.NoFileExists(t, dst)
}

func TestVThumbProducerMissingBinary(t *testing.T) {
	f := NewVThumbProducer(filepath.Join(t.TempDir(), "nope"))
	defer f.Close()

	assert.False(t, waitDone(t, f.Process("in.mp4", filepath.Join(t.TempDir(), "x.mp4"))))
}
