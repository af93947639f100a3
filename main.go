package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"motioncam/config"
	"motioncam/notify"
	"motioncam/serve"
	"motioncam/store"
	"motioncam/util"
	"motioncam/video"
	"motioncam/video/camera"
	"motioncam/video/process"
	"motioncam/video/sink"

	arg "github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
)

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to JSON configuration file"`
	Headless   bool   `arg:"--headless" help:"don't open a window; stop with SIGINT"`
	Listen     string `arg:"-l,--listen" help:"address of the status server, e.g. :8080"`
	Verbose    bool   `arg:"-v,--verbose" help:"log the motion score of every frame"`
}

func (Args) Description() string {
	return "Records video from a camera whenever motion is detected. Press escape in the window to quit."
}

func main() {
	if err := runMain(); err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	var args Args
	arg.MustParse(&args)
	if args.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	conf, err := config.Load(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.Headless {
		conf.Headless = true
	}
	if args.Listen != "" {
		conf.Listen = args.Listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newSink := camera.OpenCVSinkFunc()
	var vthumb *process.VThumbProducer
	if conf.Encoder == config.EncoderFFmpeg {
		ffmpegp, err := util.LocateFFmpeg()
		if err != nil {
			return fmt.Errorf("unable to locate ffmpeg binary; put it in $PATH, set %s or use the %q encoder: %w",
				util.FFmpegEnv, config.EncoderOpenCV, err)
		}
		log.Infof("Located ffmpeg binary, %v", ffmpegp)
		newSink = camera.FFmpegSinkFunc(ffmpegp)
		if conf.Previews {
			vthumb = process.NewVThumbProducer(ffmpegp)
			defer vthumb.Close()
		}
	}

	fs, err := video.NewFilesystem(conf.OutputDir, conf.Ext())
	if err != nil {
		return fmt.Errorf("failed to create filesystem: %w", err)
	}

	var catalog *store.Store
	if conf.DatabaseDSN != "" {
		catalog, err = store.Open(conf.DatabaseDSN)
		if err != nil {
			return err
		}
		defer catalog.Close()
	}

	cam, err := camera.Open(camera.Options{
		Device:  conf.Device,
		Width:   conf.Width,
		Height:  conf.Height,
		FPS:     conf.FPS,
		NewSink: newSink,
	})
	if err != nil {
		return err
	}

	var display sink.Display = sink.Headless{}
	if !conf.Headless {
		display = sink.NewWindow(conf.WindowName)
	}

	rec := video.NewRecorder(cam, fs, conf.RecordTime())
	loop := video.NewLoop(cam, process.NewMotionDetector(conf.KernelSize), rec, display, video.LoopOptions{
		PercentMotion:   conf.PercentMotion,
		StabilizeFrames: conf.StabilizeFrames,
		QuitKey:         conf.QuitKey,
	})
	defer loop.Close()

	notifier := &notify.Notifier{
		HoursStart: conf.NotificationHoursStart,
		HoursEnd:   conf.NotificationHoursEnd,
	}
	rec.Listeners = append(rec.Listeners, notifier)
	if catalog != nil {
		rec.Listeners = append(rec.Listeners, catalog)
	}
	if vthumb != nil {
		rec.Listeners = append(rec.Listeners, &video.Previews{Producer: vthumb})
	}

	if conf.Listen != "" {
		mjpeg := sink.NewMJPEGServer()
		loop.SetStreams(mjpeg.NewStreamPool())

		updater := serve.NewMetaUpdater()
		fs.Listeners = append(fs.Listeners, updater) // Receive filesystem updates
		rec.Listeners = append(rec.Listeners, updater)

		opts := serve.Options{
			FS:               fs,
			VideoContentType: conf.ContentType(),
			Recorder:         rec,
			MJPEG:            mjpeg,
			Updater:          updater,
		}
		if catalog != nil {
			opts.Catalog = catalog
			wp, err := notify.NewWebPush(catalog.DB(), conf.PushSubscriber)
			if err != nil {
				return err
			}
			opts.WebPush = wp
			notifier.Listeners = append(notifier.Listeners, wp)
		}

		go func() {
			if err := serve.ListenAndServe(ctx, conf.Listen, serve.NewHandler(opts)); err != nil {
				log.Errorf("Status server failed: %v", err)
			}
		}()
	}

	go func() {
		if err := fs.Watch(ctx); err != nil {
			log.Errorf("Not watching %v: %v", conf.OutputDir, err)
		}
	}()

	err = loop.Run(ctx)
	notifier.Wait()
	if err != nil {
		return err
	}
	log.Info("Exiting")
	return nil
}
