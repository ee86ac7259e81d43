package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grimm.is/portcullis/internal/brand"
	"grimm.is/portcullis/internal/clock"
	"grimm.is/portcullis/internal/config"
	"grimm.is/portcullis/internal/events"
	"grimm.is/portcullis/internal/firewall"
	"grimm.is/portcullis/internal/knock"
	"grimm.is/portcullis/internal/logging"
	"grimm.is/portcullis/internal/metrics"
	"grimm.is/portcullis/internal/scheduler"
	"grimm.is/portcullis/internal/watcher"
)

// RunStart loads the configuration and runs the daemon in the foreground
// until SIGINT or SIGTERM.
func RunStart(configFile string) error {
	SetProcessName(brand.BinaryName)

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger, closer, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	logging.SetDefault(logger)

	timings, err := cfg.Knock.Timings()
	if err != nil {
		return err
	}

	ruleset := &firewall.Ruleset{
		Table:          cfg.Firewall.Table,
		KnockPorts:     cfg.Knock.SequencePorts(),
		ProtectedPorts: cfg.Knock.Protected(),
		NFLogGroup:     cfg.Source.NFLogGroup,
	}

	setup := firewall.NewNFTController(ruleset)
	if err := setup.Setup(); err != nil {
		return fmt.Errorf("failed to apply base ruleset: %w", err)
	}
	logger.Info("base ruleset applied", "table", cfg.Firewall.Table)

	controller, err := firewall.OpenBackend(cfg.Firewall.Backend, ruleset)
	if err != nil {
		return err
	}

	hub := events.NewHub()
	gate := knock.New(knock.Config{
		Sequence:        cfg.Knock.SequencePorts(),
		ProtectedPorts:  cfg.Knock.Protected(),
		AccessDuration:  timings.AccessDuration,
		SequenceTimeout: timings.SequenceTimeout,
		BanDuration:     timings.BanDuration,
		RateLimitWindow: timings.RateLimitWindow,
		RateLimitMax:    cfg.Knock.RateLimit.Max,
		IdleEviction:    timings.IdleEviction,
	}, controller, hub, logger, nil)

	collector := metrics.NewCollector(logger, hub)
	go collector.Start()
	defer collector.Stop()

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(logger, cfg.Metrics.Listen)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	source, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	if err := source.Start(); err != nil {
		return err
	}

	sched := scheduler.New(logger)
	start := clock.Now()
	if err := sched.AddTask(&scheduler.Task{
		ID:       "sweep",
		Name:     "idle-state sweep",
		Schedule: scheduler.Every(timings.RateLimitWindow),
		Func: func(ctx context.Context) error {
			gate.Sweep(clock.Now())
			return nil
		},
	}); err != nil {
		return err
	}
	if err := sched.AddTask(&scheduler.Task{
		ID:         "uptime",
		Name:       "uptime gauge",
		Schedule:   scheduler.Every(15 * time.Second),
		RunOnStart: true,
		Func: func(ctx context.Context) error {
			metrics.Get().Uptime.Set(clock.Since(start).Seconds())
			return nil
		},
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	logger.Info("daemon started",
		"sequence_length", len(cfg.Knock.Sequence),
		"protected_ports", cfg.Knock.ProtectedPorts,
		"source", cfg.Source.Kind,
		"backend", cfg.Firewall.Backend)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case e, ok := <-source.Events():
			if !ok {
				return fmt.Errorf("event source closed unexpectedly")
			}
			gate.Process(e.Addr, e.Port, e.At)
		case s := <-sig:
			logger.Info("shutting down", "signal", s.String())
			source.Stop()

			if metricsSrv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				metricsSrv.Shutdown(ctx)
				cancel()
			}

			// Firewall state is left in place: bans and grants outlive
			// the process, but their reversals do not.
			st := gate.Snapshot()
			if st.PendingReversals > 0 {
				logger.Warn("exiting with pending reversals; firewall state persists",
					"pending_unbans", st.PendingUnbans,
					"pending_revokes", st.PendingRevokes)
			}
			return nil
		}
	}
}

func openSource(cfg *config.Config, logger *logging.Logger) (watcher.Source, error) {
	switch cfg.Source.Kind {
	case "nflog":
		return watcher.NewNFLogSource(uint16(cfg.Source.NFLogGroup), cfg.Knock.Secret, logger, nil), nil
	case "file":
		return watcher.NewFileSource(cfg.Source.File, cfg.Knock.Secret, logger, nil), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// buildLogger assembles the logger from the log and syslog blocks. The
// returned closer, if non-nil, owns the syslog connection.
func buildLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	logCfg := logging.Config{
		Level: logging.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	}

	if !cfg.Syslog.Enabled {
		return logging.New(logCfg), nil, nil
	}

	sw, err := logging.NewSyslogWriter(logging.SyslogConfig{
		Enabled:  true,
		Host:     cfg.Syslog.Host,
		Port:     cfg.Syslog.Port,
		Protocol: cfg.Syslog.Protocol,
		Tag:      cfg.Syslog.Tag,
		Facility: 4,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up syslog: %w", err)
	}

	logCfg.Output = logging.MultiWriter(os.Stderr, sw)
	return logging.New(logCfg), sw, nil
}
