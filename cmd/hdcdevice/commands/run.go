package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/gohdc/internal/config"
	"github.com/dantte-lp/gohdc/internal/control"
	"github.com/dantte-lp/gohdc/internal/feature"
	"github.com/dantte-lp/gohdc/internal/hdc"
	"github.com/dantte-lp/gohdc/internal/hdcmetrics"
	"github.com/dantte-lp/gohdc/internal/link"
)

// workTickInterval is how often the cooperative Device.Work()/core.Tick()
// loop runs. The link adapters do their actual I/O asynchronously in their
// own goroutines; this only needs to be frequent enough to notice a
// completed RX/TX promptly.
const workTickInterval = 2 * time.Millisecond

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the HDC device against a real serial link",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDevice()
		},
	}
}

func runDevice() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	logger.Info("hdcdevice starting",
		slog.String("link_device", cfg.Link.Device),
		slog.Int("baud_rate", cfg.Link.BaudRate),
		slog.String("control_addr", cfg.Control.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	lnk, err := link.NewSerial(cfg.Link.Device, cfg.Link.BaudRate)
	if err != nil {
		return fmt.Errorf("open serial link: %w", err)
	}
	defer lnk.Close()

	return runWithLink(cfg, lnk, logger)
}

// serialBinder is the subset of link adapters that support the two-phase
// Bind-then-Start wiring hdc.Device requires (see hdc.Device.Start).
type serialBinder interface {
	hdc.Link
	Bind(onRXEvent func(n int), onTXComplete func())
}

func runWithLink(cfg *config.Config, lnk serialBinder, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	collector := hdcmetrics.NewCollector(reg)

	core := feature.NewCore(func() {
		logger.Warn("device Reset requested; exiting process")
		os.Exit(0)
	})

	hdcCfg := hdc.Config{MaxReqMessageSize: cfg.HDC.MaxReqMessageSize, TXBufCap: cfg.HDC.TXBufCap}
	dev, err := hdc.Init(lnk, hdcCfg, []*hdc.Feature{core.Feature()},
		hdc.WithLogger(logger),
		hdc.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("init hdc device: %w", err)
	}
	lnk.Bind(dev.OnRXEvent, dev.OnTXComplete)
	dev.Start()
	core.Bind(dev)
	core.Initialize()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return runDeviceLoop(gCtx, dev, core) })
	g.Go(func() error { return runMetricsServer(gCtx, cfg.Metrics, reg, logger) })
	g.Go(func() error { return control.New(dev, cfg.Control.Addr, logger).Run(gCtx) })

	if err := g.Wait(); err != nil && gCtx.Err() == nil {
		return fmt.Errorf("run device: %w", err)
	}
	return nil
}

func runDeviceLoop(ctx context.Context, dev *hdc.Device, core *feature.Core) error {
	ticker := time.NewTicker(workTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dev.Flush()
			return nil
		case now := <-ticker.C:
			dev.Work()
			core.Tick(now)
		}
	}
}

func runMetricsServer(ctx context.Context, cfg config.MetricsConfig, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}
	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
