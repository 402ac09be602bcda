// Package app holds process-wide setup shared by the command-line tools.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"speech-batch-transcriber/internal/config"
	"speech-batch-transcriber/internal/events"
	"speech-batch-transcriber/internal/observability"
	"speech-batch-transcriber/internal/observability/logging"
	"speech-batch-transcriber/internal/observability/metrics"
)

// Application holds process-wide state for one tool invocation.
type Application struct {
	Name        string
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
	Metrics     *metrics.Metrics
	Publisher   *events.Publisher

	metricsServer *observability.Server
}

// New constructs an Application. The global logger is initialised from cfg;
// quiet raises the level so only warnings and errors reach stderr.
func New(name string, cfg *config.Config, quiet bool) *Application {
	a := &Application{
		Name:    name,
		Cfg:     cfg,
		Metrics: metrics.DefaultMetrics,
	}
	a.setupLogger(quiet)

	a.Publisher = events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	}, a.Metrics)

	a.Logger.Debug().
		Str("method", "New").
		Str("provider", cfg.Provider.Name).
		Msg("Application created")
	return a
}

func (a *Application) setupLogger(quiet bool) {
	lc := logging.DefaultConfig()
	lc.Level = a.Cfg.Observability.LogLevel
	lc.Format = a.Cfg.Observability.LogFormat
	lc.Quiet = quiet
	logging.Init(lc)

	a.Logger = logging.WithComponent("application").
		With().
		Str("service", a.Name).
		Logger()

	a.Logger.Debug().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Bool("quiet", quiet).
		Msg("Logger setup completed")
}

// Start starts the optional metrics server.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()

	if addr := a.Cfg.Observability.MetricsAddr; addr != "" {
		a.metricsServer = observability.NewServer(addr)
		a.metricsServer.Start()
	}

	a.Logger.Debug().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Msg("Application starting")
	return nil
}

// Shutdown flushes events, pushes metrics when a Pushgateway is configured
// and stops the metrics server. Failures are logged, never returned.
func (a *Application) Shutdown(ctx context.Context) {
	log := a.Logger.With().Str("method", "Shutdown").Logger()

	if err := a.Publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("Event publisher close failed")
	}

	if url := a.Cfg.Observability.PushgatewayURL; url != "" {
		if err := a.Metrics.Push(ctx, url, a.Name); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Metrics push failed")
		} else {
			log.Debug().Str("url", url).Msg("Metrics pushed")
		}
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Debug().
		Dur("uptime", time.Since(a.StartupTime)).
		Msg("Application shutting down")
}
