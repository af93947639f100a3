package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"
)

const (
	ExtThumb  = "_thumb.jpg"
	ExtVThumb = "_vthumb.mp4"

	// FileTimeLayout defines the format of filenames, e.g. 20261017_14h03m09s.
	// See https://golang.org/src/time/format.go.
	FileTimeLayout = "20060102_15h04m05s"
)

// Record is a single triggered recording and its companion files.
type Record struct {
	Identifier  string
	TriggeredAt time.Time

	VideoPath  string
	ThumbPath  string
	VThumbPath string

	// Score is the motion score that triggered the recording. It is only
	// known for records created by this process.
	Score int
	// Manual is set when the recording was requested rather than triggered
	// by motion.
	Manual bool

	HaveVideo        bool
	HaveThumb        bool
	HaveVThumb       bool
	Size             int64
	VideoDurationSec int

	fs *Filesystem
}

// Delete removes the files belonging to the record.
func (r *Record) Delete() error {
	for _, p := range []string{r.VideoPath, r.ThumbPath, r.VThumbPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	log.Infof("Deleted record %v", r.Identifier)
	if r.fs != nil {
		return r.fs.Refresh()
	}
	return nil
}

type FilesystemListener interface {
	FilesystemUpdated()
}

// Filesystem indexes the recordings in a directory.
type Filesystem struct {
	BasePath string
	// Ext is the extension of video files, including the dot.
	Ext string

	Listeners []FilesystemListener

	records map[string]*Record
	l       sync.Mutex
}

func NewFilesystem(path, ext string) (*Filesystem, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	f := &Filesystem{
		BasePath: path,
		Ext:      ext,
	}
	if err := f.Refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewRecord returns the paths for a recording triggered at t.
func (f *Filesystem) NewRecord(t time.Time) *Record {
	id := t.Format(FileTimeLayout)
	base := filepath.Join(f.BasePath, id)
	return &Record{
		Identifier:  id,
		TriggeredAt: t,
		VideoPath:   base + f.Ext,
		ThumbPath:   base + ExtThumb,
		VThumbPath:  base + ExtVThumb,
		fs:          f,
	}
}

// Refresh rescans BasePath.
func (f *Filesystem) Refresh() error {
	m := make(map[string]*Record)

	files, err := os.ReadDir(f.BasePath)
	if err != nil {
		return err
	}

	for _, file := range files {
		b := file.Name()
		if len(b) < len(FileTimeLayout) {
			continue
		}
		id := b[:len(FileTimeLayout)]
		t, err := time.ParseInLocation(FileTimeLayout, id, time.Local)
		if err != nil {
			continue
		}

		v := m[id]
		if v == nil {
			v = f.NewRecord(t)
		}

		switch b[len(id):] {
		case f.Ext:
			v.HaveVideo = true
			if info, err := file.Info(); err == nil {
				v.Size = info.Size()
			}
			v.VideoDurationSec = videoDuration(v.VideoPath)
		case ExtThumb:
			v.HaveThumb = true
		case ExtVThumb:
			v.HaveVThumb = true
		default:
			continue
		}

		m[id] = v
	}

	f.l.Lock()
	defer f.l.Unlock()
	// Keep what only this process knows about its own records.
	for id, old := range f.records {
		if v, ok := m[id]; ok {
			v.TriggeredAt = old.TriggeredAt
			v.Score = old.Score
			v.Manual = old.Manual
		}
	}
	f.records = m
	return nil
}

func videoDuration(path string) int {
	if !strings.HasSuffix(path, ".mp4") {
		return 0
	}
	d, err := mp4util.Duration(path)
	if err != nil {
		// Recordings in progress have no moov atom yet.
		log.Debugf("Failed to read duration of %v: %v", path, err)
		return 0
	}
	return d
}

// Add registers a record written by this process. The index keeps its own
// copy; later changes go through Update.
func (f *Filesystem) Add(r *Record) {
	f.l.Lock()
	defer f.l.Unlock()
	if f.records == nil {
		f.records = make(map[string]*Record)
	}
	c := *r
	c.fs = f
	f.records[r.Identifier] = &c
}

// Update applies fn to the indexed record id under the index lock. It
// reports whether the record exists.
func (f *Filesystem) Update(id string, fn func(r *Record)) bool {
	f.l.Lock()
	defer f.l.Unlock()
	r, ok := f.records[id]
	if ok {
		fn(r)
	}
	return ok
}

// GetRecords returns copies of all records, newest first.
func (f *Filesystem) GetRecords() []*Record {
	f.l.Lock()
	defer f.l.Unlock()
	records := make([]*Record, 0, len(f.records))
	for _, r := range f.records {
		c := *r
		records = append(records, &c)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TriggeredAt.After(records[j].TriggeredAt)
	})
	return records
}

// GetRecordByID returns a copy of record id, or nil.
func (f *Filesystem) GetRecordByID(id string) *Record {
	f.l.Lock()
	defer f.l.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

// Watch refreshes the index whenever BasePath changes and tells Listeners.
// It returns when ctx is cancelled.
func (f *Filesystem) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(f.BasePath); err != nil {
		return fmt.Errorf("failed to watch %v: %w", f.BasePath, err)
	}

	// Bursts of events (ffmpeg writing a file) are coalesced.
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			log.Errorf("Error watching %v: %v", f.BasePath, err)
		case <-watcher.Events:
			if settle == nil {
				settle = time.After(time.Second / 10)
			}
		case <-settle:
			settle = nil
			if err := f.Refresh(); err != nil {
				log.Errorf("Failed to refresh %v: %v", f.BasePath, err)
				continue
			}
			for _, l := range f.Listeners {
				l.FilesystemUpdated()
			}
		}
	}
}
