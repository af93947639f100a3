package serve

import (
	"fmt"
	"net/http"
	"os"

	"motioncam/video"
)

type FileServer struct {
	FS          *video.Filesystem
	PathFunc    func(r *video.Record) string
	ContentType string
}

func NewVideoServer(fs *video.Filesystem, contentType string) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.Record) string {
			return r.VideoPath
		},
		ContentType: contentType,
	}
}

func NewThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.Record) string {
			return r.ThumbPath
		},
		ContentType: "image/jpeg",
	}
}

func NewVThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(r *video.Record) string {
			return r.VThumbPath
		},
		ContentType: "video/mp4",
	}
}

func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	vr := s.FS.GetRecordByID(id)
	if vr == nil {
		http.Error(w, fmt.Sprintf("No record found for id %v", id), http.StatusNotFound)
		return
	}

	f, err := os.Open(s.PathFunc(vr))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", s.ContentType)
	// ServeContent handles range requests, which browsers need for seeking.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
