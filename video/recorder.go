package video

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"motioncam/metrics"
	"motioncam/video/process"
	"motioncam/video/source"

	log "github.com/sirupsen/logrus"
)

// RecordingListener is told about every recording the Recorder makes.
type RecordingListener interface {
	StartRecording(r *Record)
	StopRecording(r *Record)
}

type Recorder struct {
	camera     source.Recordable
	fs         *Filesystem
	recordTime time.Duration

	Listeners []RecordingListener

	manual chan struct{}
}

func NewRecorder(camera source.Recordable, fs *Filesystem, recordTime time.Duration) *Recorder {
	return &Recorder{
		camera:     camera,
		fs:         fs,
		recordTime: recordTime,
		manual:     make(chan struct{}, 1),
	}
}

// Record writes a recording of the fixed record time, named after the time
// of trigger. It blocks until the recording is complete. A thumbnail of the
// triggering frame is written next to the video.
func (r *Recorder) Record(ctx context.Context, trigger source.Image, score int, manual bool) (*Record, error) {
	rec := r.fs.NewRecord(trigger.Time)
	rec.Score = score
	rec.Manual = manual

	if err := process.WriteThumb(rec.ThumbPath, trigger); err != nil {
		log.Errorf("Failed to generate thumbnail: %v", err)
	} else {
		rec.HaveThumb = true
	}
	r.fs.Add(rec)

	for _, l := range r.Listeners {
		l.StartRecording(rec)
	}

	start := time.Now()
	if err := r.camera.StartRecording(rec.VideoPath); err != nil {
		return nil, err
	}
	if err := r.camera.WaitRecording(ctx, r.recordTime); err != nil {
		if stopErr := r.camera.StopRecording(); stopErr != nil {
			log.Errorf("Failed to stop recording: %v", stopErr)
		}
		return nil, fmt.Errorf("recording %v failed: %w", rec.VideoPath, err)
	}
	if err := r.camera.StopRecording(); err != nil {
		return nil, fmt.Errorf("failed to finalize %v: %w", rec.VideoPath, err)
	}
	rec.HaveVideo = true
	r.fs.Update(rec.Identifier, func(v *Record) {
		v.HaveVideo = true
	})
	metrics.RecordingsTotal.Inc()
	metrics.RecordingSeconds.Observe(time.Since(start).Seconds())

	for _, l := range r.Listeners {
		l.StopRecording(rec)
	}
	return rec, nil
}

// Requested reports whether a manual trigger is pending, consuming it.
func (r *Recorder) Requested() bool {
	select {
	case <-r.manual:
		return true
	default:
		return false
	}
}

// Trigger asks the capture loop to record on its next iteration, regardless
// of motion.
func (r *Recorder) Trigger() {
	select {
	case r.manual <- struct{}{}:
	default:
		// Already pending.
	}
}

// ServeHTTP implements http.Handler interface for manual triggering.
func (r *Recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != "POST" {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	r.Trigger()

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
