package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/radio-control/rfkilld/internal/api"
	"github.com/radio-control/rfkilld/internal/audit"
	"github.com/radio-control/rfkilld/internal/auth"
	"github.com/radio-control/rfkilld/internal/backend"
	"github.com/radio-control/rfkilld/internal/backend/devrfkill"
	"github.com/radio-control/rfkilld/internal/backend/fake"
	"github.com/radio-control/rfkilld/internal/command"
	"github.com/radio-control/rfkilld/internal/config"
	"github.com/radio-control/rfkilld/internal/input"
	"github.com/radio-control/rfkilld/internal/input/evdev"
	"github.com/radio-control/rfkilld/internal/metrics"
	"github.com/radio-control/rfkilld/internal/telemetry"
	"github.com/radio-control/rfkilld/internal/work"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var backendName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rfkill input coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				log.Logger = log.Logger.Level(zerolog.DebugLevel)
			} else {
				log.Logger = log.Logger.Level(zerolog.InfoLevel)
			}
			return serve(configPath, backendName)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.json", "path to config.json")
	cmd.Flags().StringVar(&backendName, "backend", "", "backend override: fake or devrfkill")
	return cmd
}

func serve(configPath, backendName string) error {
	log.Info().Str("version", Version).Msg("starting rfkilld")

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if backendName != "" {
		cfg.Backend = backendName
		if err := config.Validate(cfg); err != nil {
			return errors.Wrap(err, "backend override")
		}
	}

	// Backend
	var be backend.Backend
	var closeBackend func() error
	switch cfg.Backend {
	case config.BackendFake:
		be = fake.New()
		log.Warn().Msg("using fake backend; no hardware will be touched")
	default:
		dev, err := devrfkill.Open(cfg.RfkillDevice)
		if err != nil {
			return errors.Wrap(err, "open rfkill backend")
		}
		be = dev
		closeBackend = dev.Close
	}

	// Ambient components
	auditLogger, err := audit.NewLogger(cfg.AuditDir, log.Logger)
	if err != nil {
		return errors.Wrap(err, "initialize audit logger")
	}
	hub := telemetry.NewHub(telemetry.Options{
		BufferSize:        cfg.EventBufferSize,
		HeartbeatInterval: cfg.HeartbeatInterval,
		HeartbeatJitter:   cfg.HeartbeatJitter,
	})
	stats := metrics.NewCollector()

	// Coordinator
	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	runner := work.NewRunner(runnerCtx, cfg.Workers)
	coord := command.NewCoordinator(be, runner, cfg.DebounceWindow, log.Logger,
		command.WithAuditLogger(auditLogger),
		command.WithEventPublisher(hub),
		command.WithMetrics(stats),
	)
	dispatcher := command.NewDispatcher(coord, stats, log.Logger)

	// Input devices
	devices, err := evdev.Scan(cfg.InputGlob, input.RfkillDescriptor(), log.Logger)
	if err != nil {
		return errors.Wrap(err, "scan input devices")
	}
	if len(devices) == 0 {
		log.Warn().Msg("no matching input devices found")
	}
	var handles []*input.Handle
	for _, dev := range devices {
		h, err := input.Connect(dev, dispatcher)
		if err != nil {
			log.Warn().Err(err).Str("device", dev.Name()).Msg("connect failed")
			continue
		}
		handles = append(handles, h)
	}

	// Operational HTTP surface
	var authMW *auth.Middleware
	if cfg.AuthSecretKey != "" || cfg.AuthPublicKeyPEM != "" {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Algorithm:    cfg.AuthAlgorithm,
			SecretKey:    cfg.AuthSecretKey,
			PublicKeyPEM: cfg.AuthPublicKeyPEM,
		})
		if err != nil {
			return errors.Wrap(err, "initialize auth")
		}
		authMW = auth.NewMiddleware(verifier)
	} else {
		log.Warn().Msg("operational API running without authentication")
	}
	server := api.NewServer(hub, coord, stats.Handler(), authMW, api.Timeouts{
		Read:  cfg.ReadTimeout,
		Write: cfg.WriteTimeout,
		Idle:  cfg.IdleTimeout,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil {
			serverErr <- err
		}
	}()
	log.Info().Str("addr", cfg.ListenAddr).Int("devices", len(handles)).Msg("rfkilld started")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Info().Stringer("signal", sig).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
	}

	// Shutdown order matters: stop event delivery first, then drain the
	// workers so none can touch the tasks afterwards, then tear down the
	// ambient surfaces.
	for _, h := range handles {
		input.Disconnect(h)
	}
	runner.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}
	hub.Stop()
	if err := auditLogger.Close(); err != nil {
		log.Warn().Err(err).Msg("close audit logger")
	}
	if closeBackend != nil {
		if err := closeBackend(); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}

	log.Info().Msg("rfkilld stopped")
	return nil
}
