package video

import (
	"motioncam/video/process"
)

// Previews queues a short preview clip for every finished recording.
type Previews struct {
	Producer *process.VThumbProducer
}

func (p *Previews) StartRecording(*Record) {}

func (p *Previews) StopRecording(r *Record) {
	p.Producer.Process(r.VideoPath, r.VThumbPath)
}
