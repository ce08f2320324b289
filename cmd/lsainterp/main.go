package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/app"
	"github.com/ayusman/lsainterp/internal/capture"
	"github.com/ayusman/lsainterp/internal/config"
	"github.com/ayusman/lsainterp/internal/detector"
	"github.com/ayusman/lsainterp/internal/dictionary"
	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/grammar"
	"github.com/ayusman/lsainterp/internal/logging"
	"github.com/ayusman/lsainterp/internal/metrics"
	"github.com/ayusman/lsainterp/internal/server"
	"github.com/ayusman/lsainterp/internal/sink"
	"github.com/ayusman/lsainterp/internal/store"
	"github.com/ayusman/lsainterp/internal/tray"
)

func main() {
	fmt.Println("LSA - Sign Language Interpreter")

	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	errLog := logging.NewErrorLog(logging.DefaultErrorHistory)
	logger, err := logging.NewLogger(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.LogDev,
	}, errLog)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, errLog); err != nil {
		logger.Fatal("lsainterp failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger, errLog *logging.ErrorLog) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	dict := dictionary.New(st.Signs(), logging.WithComponent(logger, "dictionary"))
	if err := dict.LoadBuiltin(); err != nil {
		return err
	}

	dcfg := detector.DefaultConfig()

	faces, err := detector.NewCascadeDetector(cfg.FaceCascade, dcfg.ScaleFactor, dcfg.MinNeighbors, dcfg.FaceMinSize)
	if err != nil {
		return fmt.Errorf("load face cascade: %w", err)
	}
	defer faces.Close()

	var eyes detector.RegionDetector
	if cfg.EyeCascade != "" {
		eyeDetector, err := detector.NewCascadeDetector(cfg.EyeCascade, dcfg.ScaleFactor, dcfg.MinNeighbors, image.Point{})
		if err != nil {
			return fmt.Errorf("load eye cascade: %w", err)
		}
		defer eyeDetector.Close()
		eyes = eyeDetector
	}

	hub := sink.NewHub(logging.WithComponent(logger, "sink"), m)
	historySub := hub.Subscribe("history", sink.DefaultBuffer)
	storeSub := hub.Subscribe("store", sink.DefaultBuffer)
	resultsSub := hub.Subscribe("websocket", sink.DefaultBuffer)
	var traySub *sink.Subscription
	if cfg.TrayEnabled {
		traySub = hub.Subscribe("tray", sink.DefaultBuffer)
	}

	smoother := grammar.NewSmoother(logging.WithComponent(logger, "grammar"), m)
	pipeline := app.NewPipeline(
		detector.NewHandExtractor(dcfg, detector.OpenCVShapes{}, logging.WithComponent(logger, "hand"), m),
		detector.NewFaceExtractor(dcfg, faces, eyes, logging.WithComponent(logger, "face"), m),
		fusion.NewEngine(logging.WithComponent(logger, "fusion"), m),
		smoother,
		hub,
		logging.WithComponent(logger, "pipeline"),
		m,
	)

	camera := capture.NewCamera(capture.Options{
		DeviceID: cfg.CameraID,
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
	})

	application := app.New(app.Config{
		FPS:             cfg.FPS,
		MotionThreshold: cfg.MotionThreshold,
		IdleTimeout:     cfg.IdleTimeout,
	}, camera, pipeline, logging.WithComponent(logger, "app"), m)

	settings := st.Settings()
	application.SetEnabled(settings.Bool(store.SettingEnabled, true))

	history := sink.NewHistory(cfg.HistoryLimit)
	results := server.NewResultsHandler(logging.WithComponent(logger, "websocket"))

	go sink.Run(ctx, historySub, history.Add)
	go sink.Run(ctx, storeSub, sink.Persist(st.Detections(), logging.WithComponent(logger, "store")))
	go results.Run(ctx, resultsSub)

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		logger.Info("serving static files", zap.String("dir", webDir))
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Frames:     application.Frames(),
		History:    history,
		Smoother:   smoother,
		Errors:     errLog,
		Detections: st.Detections(),
		Dictionary: dict,
		Results:    results,
		Metrics:    m,
	})
	httpServer := srv.HTTPServer(cfg.HTTPAddr)

	if err := application.Start(); err != nil {
		return err
	}
	defer application.Stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	if cfg.TrayEnabled {
		runTray(ctx, stop, application, settings, traySub, "http://"+cfg.HTTPAddr, logger)
	}

	<-ctx.Done()
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	hub.Close()
	return nil
}

// runTray shows the tray on the calling goroutine until the user quits or
// ctx ends. Quitting the tray cancels ctx through stop.
func runTray(ctx context.Context, stop context.CancelFunc, application *app.App, settings *store.SettingsRepository, sub *sink.Subscription, url string, logger *zap.Logger) {
	t := tray.New(application.IsEnabled())
	t.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
		if err := settings.SetBool(store.SettingEnabled, enabled); err != nil {
			logger.Warn("persist enabled setting", zap.Error(err))
		}
		logger.Info("analysis toggled", zap.Bool("enabled", enabled))
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn("open dashboard", zap.Error(err))
		}
	})
	t.OnQuit(stop)

	go t.Follow(ctx, sub)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// systray must own the main goroutine on macOS.
	t.Run()
	stop()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and DataDir/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
