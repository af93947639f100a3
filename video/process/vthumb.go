package process

import (
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

const (
	ExtTemp = ".temp"
)

// VThumbProducer converts finished recordings into short, sped up preview
// clips on a background worker.
type VThumbProducer struct {
	ffmpeg string
	c      chan *workItem
	close  chan chan bool
}

type workItem struct {
	src, dst string
	donec    chan bool
}

func NewVThumbProducer(ffmpeg string) *VThumbProducer {
	f := &VThumbProducer{
		ffmpeg: ffmpeg,
		c:      make(chan *workItem, 100),
		close:  make(chan chan bool, 1),
	}
	go func() {
		for {
			var w *workItem
			select {
			case cc := <-f.close:
				cc <- true
				return
			case w = <-f.c:
			}

			c := exec.Command(
				f.ffmpeg,
				// Configure input from source file.
				"-i", w.src,
				// Thumbnails can be choppy to reduce size.
				"-r", "3",
				// Output format as libx264
				"-c:v", "libx264",
				// Speed up video and resize to thumbnail size.
				"-vf", "setpts=0.1*PTS,scale=320:180",
				// Fast, fairly low quality.
				"-preset", "fast",
				"-crf", "28",
				// Keep CPU usage down. Thumbnail conversion doesn't need to be fast.
				"-threads", "1",
				// Limit duration to 5s (trim)
				"-t", "5",
				// Allow playback on a wider range of devices.
				"-pix_fmt", "yuv420p",
				"-profile:v", "baseline",
				"-level", "3.0",
				"-loglevel", "error",
				// Explicit format.
				"-f", "mp4",
				w.dst+ExtTemp,
			)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr

			if err := c.Start(); err != nil {
				log.Errorf("Failed to start thumbnail conversion for %v: %v", w.src, err)
				w.donec <- false
				continue
			}

			wait := make(chan error, 1)
			go func() {
				wait <- c.Wait()
			}()

			select {
			case cc := <-f.close:
				c.Process.Kill()
				w.donec <- false
				cc <- true
				return
			case err := <-wait:
				ok := false
				if err != nil {
					log.Errorf("Thumbnail conversion failed for %v: %v", w.src, err)
				} else if err := os.Rename(w.dst+ExtTemp, w.dst); err != nil {
					log.Errorf("Error moving thumbnail to its final destination: %v", err)
				} else {
					log.Infof("Thumbnail conversion succeeded for %v", w.src)
					ok = true
				}
				w.donec <- ok
			}
		}
	}()
	return f
}

// Process queues a conversion of src to dst. The returned channel receives
// whether it succeeded; it is nil if the queue is full.
func (f *VThumbProducer) Process(src, dst string) <-chan bool {
	w := &workItem{
		src:   src,
		dst:   dst,
		donec: make(chan bool, 1),
	}
	select {
	case f.c <- w:
	default:
		log.Warnf("Thumbnail processing dropped due to backlog")
		return nil
	}
	return w.donec
}

func (f *VThumbProducer) Close() {
	c := make(chan bool)
	f.close <- c
	<-c
}
