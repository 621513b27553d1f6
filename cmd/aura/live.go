package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/catalog"
	"github.com/Juan-Cwq/aura/remote"
	"github.com/Juan-Cwq/aura/stream"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/spf13/cobra"
)

type liveOptions struct {
	Device       string
	Format       string
	Width        int
	Height       int
	FPS          int
	Addr         string
	LandmarksURL string
	VtonURL      string
	Detect       time.Duration
	NoMirror     bool
	Debug        bool
	Style        styleOptions
}

var liveOpts liveOptions

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run the real-time try-on over a camera feed and stream it as MJPEG",
	Long: `Run the real-time try-on. Frames are read from ffmpeg when --ffmpeg is set,
otherwise a MJPEG stream is expected on stdin. The composited preview is served on /stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		liveOpts.Style.resolve(cmd)
		liveOpts.Device = flagOrEnv(cmd, "ffmpeg", "AURA_DEVICE")
		liveOpts.Addr = flagOrEnv(cmd, "addr", "AURA_ADDR")
		liveOpts.LandmarksURL = flagOrEnv(cmd, "landmarks-url", "AURA_LANDMARKS_URL")
		liveOpts.VtonURL = flagOrEnv(cmd, "vton-url", "AURA_VTON_URL")
		return runLive(cmd.Context(), liveOpts)
	},
}

func init() {
	liveCmd.Flags().StringVar(&liveOpts.Device, "ffmpeg", "", "ffmpeg input device, e.g. /dev/video0 (default: MJPEG on stdin)")
	liveCmd.Flags().StringVar(&liveOpts.Format, "format", "", "ffmpeg input format, e.g. v4l2 or avfoundation")
	liveCmd.Flags().IntVar(&liveOpts.Width, "width", 640, "Capture width")
	liveCmd.Flags().IntVar(&liveOpts.Height, "height", 480, "Capture height")
	liveCmd.Flags().IntVar(&liveOpts.FPS, "fps", 30, "Capture frame rate")
	liveCmd.Flags().StringVar(&liveOpts.Addr, "addr", "localhost:8080", "HTTP listen address")
	liveCmd.Flags().StringVar(&liveOpts.LandmarksURL, "landmarks-url", "", "Base URL of the landmark service (default: heuristic detection)")
	liveCmd.Flags().StringVar(&liveOpts.VtonURL, "vton-url", "", "Base URL of the virtual clothing service")
	liveCmd.Flags().DurationVar(&liveOpts.Detect, "detect-interval", aura.DefaultDriverOptions().DetectInterval, "Detection interval, between 100ms and 300ms")
	liveCmd.Flags().BoolVar(&liveOpts.NoMirror, "no-mirror", false, "Show the camera feed unmirrored")
	liveCmd.Flags().BoolVar(&liveOpts.Debug, "debug", false, "Draw the detection markers over the preview")
	liveOpts.Style.register(liveCmd)

	rootCmd.AddCommand(liveCmd)
}

func runLive(ctx context.Context, opts liveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cat, err := opts.Style.loadCatalog()
	if err != nil {
		return err
	}
	cache := catalog.NewCache(logger)
	cache.Preload(ctx, cat.Assets())

	style, err := opts.Style.build(ctx, cache)
	if err != nil {
		return err
	}

	source := stream.NewSource(logger)
	sink := stream.NewSink(logger)

	driverOpts := aura.DefaultDriverOptions()
	driverOpts.DetectInterval = opts.Detect
	driverOpts.Mirror = !opts.NoMirror
	driverOpts.Debug = opts.Debug

	cfg := aura.DriverConfig{
		Source:  source,
		Sink:    sink,
		Style:   style,
		Options: driverOpts,
		Logger:  logger,
	}

	srv := &server{
		sink:   sink,
		source: source,
		cache:  cache,
		style:  opts.Style,
		logger: logger,
	}
	if opts.LandmarksURL != "" {
		srv.adapter = remote.NewAdapter(remote.NewClient(opts.LandmarksURL), logger)
		cfg.Landmarks = srv.adapter
		go func() {
			if err := srv.adapter.Connect(ctx); err != nil {
				logger.Warn("landmark service unavailable, POST /retry to reconnect", "url", opts.LandmarksURL, "error", err)
			}
		}()
	}
	if opts.VtonURL != "" {
		srv.clothing = remote.NewClothingClient(opts.VtonURL)
	}

	driver := aura.NewDriver(cfg)
	srv.driver = driver

	// The driver and the capture are stopped together; whichever ends first cancels the other.
	errc := make(chan error, 2)
	go func() {
		defer cancel()
		if opts.Device != "" {
			errc <- source.Capture(ctx, opts.Device, stream.CaptureOptions{
				Format: opts.Format,
				Width:  opts.Width,
				Height: opts.Height,
				FPS:    opts.FPS,
			})
			return
		}
		errc <- source.ReadFrom(ctx, os.Stdin)
	}()
	go func() {
		defer cancel()
		errc <- driver.Run(ctx)
	}()

	httpSrv := &http.Server{Addr: opts.Addr, Handler: srv.routes()}
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpSrv.Shutdown(shutdown)
	}()
	go reportRate(ctx, driver)

	fmt.Fprintln(os.Stderr, utils.StatusLine(fmt.Sprintf("is streaming on http://%s/stream", opts.Addr), "●", utils.SuccessMessage))

	err = httpSrv.ListenAndServe()
	cancel()
	<-driver.Done()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reportRate logs the rendering rate periodically.
func reportRate(ctx context.Context, driver *aura.Driver) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	var (
		last   int64
		lastAt = time.Now()
	)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st := driver.Status()
			logger.Debug("frame loop",
				"rate", utils.FormatRate(int(st.Frames-last), now.Sub(lastAt)),
				"detections", st.Detections,
				"skipped", st.Skipped,
				"state", st.StateName,
			)
			last, lastAt = st.Frames, now
		}
	}
}
