package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infraglow/glowctl/internal/pkg/config"
	"github.com/infraglow/glowctl/internal/pkg/coordinator"
	"github.com/infraglow/glowctl/internal/pkg/entities"
	"github.com/infraglow/glowctl/internal/pkg/model"
	"github.com/infraglow/glowctl/internal/pkg/mqtt"
	"github.com/infraglow/glowctl/internal/pkg/publisher"
	"github.com/infraglow/glowctl/internal/pkg/server"
	"github.com/infraglow/glowctl/internal/pkg/vizsync"
)

func GlowCommand(ctx *cli.Context) error {
	if ctx.Bool("from-env") {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		return run(ctx.Context, cfg)
	}

	cfg := &config.Config{
		Backend: &config.BackendConfig{
			Host:        ctx.String("glow-host"),
			Ssl:         ctx.Bool("glow-ssl"),
			EntryID:     ctx.String("glow-entry-id"),
			CallTimeout: ctx.Duration("call-timeout"),
		},
		Mqtt: &config.MqttConfig{
			Host:           ctx.String("mqtt-host"),
			Username:       ctx.String("mqtt-user"),
			Password:       ctx.String("mqtt-pass"),
			ConnectTimeout: ctx.Duration("mqtt-connect-timeout"),
		},
		LogLevel:       ctx.String("log-level"),
		ResyncSchedule: ctx.String("resync-schedule"),
		StatusAddr:     ctx.String("status-addr"),
	}

	return run(ctx.Context, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	errorChan := make(chan error, 1000)
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	if cfg.Mqtt.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.Mqtt.Host).
			SetUsername(cfg.Mqtt.Username).
			SetPassword(cfg.Mqtt.Password).
			SetClientID("glowctl_" + cfg.Backend.EntryID)
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts), cfg.Mqtt.ConnectTimeout)
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		if err := publisher.Register("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	snapshot := entities.NewSnapshot()
	syncSvc := vizsync.New(cfg.Backend, snapshot, errorChan)
	if err := syncSvc.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		_ = syncSvc.Close()
	}()

	coord := coordinator.New(cfg.Backend.EntryID, syncSvc.Store(), snapshot)
	eg.Go(func() error {
		if err := coord.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		return cronResync(cfg.ResyncSchedule, syncSvc)
	})

	eg.Go(func() error {
		srv := &http.Server{
			Handler:      server.New(syncSvc, snapshot).Handler(),
			Addr:         cfg.StatusAddr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		return srv.ListenAndServe()
	})

	eg.Go(func() error {
		// handle any async errors from the services
		for {
			select {
			case err := <-errorChan:
				logger.Error("async error", zap.Error(err))
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

type loader interface {
	Load(ctx context.Context) ([]model.Visualization, error)
}

// cronResync schedules the periodic full config resync: the overlay masks
// staleness between mutations, but a drifted backend still wins
// eventually. Only a broken schedule expression is fatal.
func cronResync(schedule string, svc loader) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { resync(svc) }); err != nil {
		return err
	}

	c.Run()
	return nil
}

// resync runs one scheduled full reload. A failed load is the expected
// transient case and must not take the process down; the next run or the
// next mutation-driven reload catches up.
func resync(svc loader) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := svc.Load(ctx); err != nil {
		zap.L().Warn("scheduled resync failed", zap.Error(err))
		return
	}
	zap.L().Info("scheduled resync complete")
}
