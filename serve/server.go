package serve

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"motioncam/notify"
	"motioncam/video"
	"motioncam/video/sink"

	assetfs "github.com/elazarl/go-bindata-assetfs"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

//go:embed static
var static embed.FS

func assetFS() *assetfs.AssetFS {
	return &assetfs.AssetFS{
		Asset: static.ReadFile,
		AssetDir: func(name string) ([]string, error) {
			entries, err := static.ReadDir(name)
			if err != nil {
				return nil, err
			}
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}
			return names, nil
		},
		AssetInfo: func(name string) (os.FileInfo, error) {
			return fs.Stat(static, name)
		},
		Prefix: "static",
	}
}

type Options struct {
	FS               *video.Filesystem
	VideoContentType string
	Recorder         *video.Recorder
	MJPEG            *sink.MJPEGServer
	Updater          *MetaUpdater

	// Optional.
	Catalog Catalog
	WebPush *notify.WebPush
}

// NewHandler builds the status server's routes.
func NewHandler(o Options) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/events", &MetaServer{FS: o.FS})
	mux.Handle("/video", NewVideoServer(o.FS, o.VideoContentType))
	mux.Handle("/thumb", NewThumbServer(o.FS))
	mux.Handle("/vthumb", NewVThumbServer(o.FS))
	mux.Handle("/delete", &DeleteServer{FS: o.FS})
	mux.Handle("/metrics", promhttp.Handler())
	if o.Recorder != nil {
		mux.Handle("/trigger", o.Recorder)
	}
	if o.MJPEG != nil {
		mux.Handle("/mjpeg", o.MJPEG)
	}
	if o.Updater != nil {
		mux.Handle("/eventsws", o.Updater)
	}
	if o.Catalog != nil {
		mux.Handle("/history", &HistoryServer{Catalog: o.Catalog})
	}
	if o.WebPush != nil {
		o.WebPush.RegisterHandlers(mux)
	}
	mux.Handle("/", http.FileServer(assetFS()))
	return handlers.CombinedLoggingHandler(log.StandardLogger().WriterLevel(log.DebugLevel), mux)
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	log.Infof("Hosting status server on %v", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
