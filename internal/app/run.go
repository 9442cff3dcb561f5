package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/config"
	"github.com/Christian-SuMePa/hausserver/internal/db"
	"github.com/Christian-SuMePa/hausserver/internal/db/migrate"
	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/httpapi"
	climate "github.com/Christian-SuMePa/hausserver/internal/modules/climate"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/repository"
	climateservice "github.com/Christian-SuMePa/hausserver/internal/modules/climate/service"
	climateviews "github.com/Christian-SuMePa/hausserver/internal/modules/climate/views"
	weather "github.com/Christian-SuMePa/hausserver/internal/modules/weather"
	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/dwd"
	weatherservice "github.com/Christian-SuMePa/hausserver/internal/modules/weather/service"
	weatherviews "github.com/Christian-SuMePa/hausserver/internal/modules/weather/views"
	"github.com/Christian-SuMePa/hausserver/internal/mqtt"
	"github.com/Christian-SuMePa/hausserver/internal/scheduler"
	"github.com/Christian-SuMePa/hausserver/internal/sensor"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"timezone", cfg.Timezone,
		"dbDriver", cfg.DBDriver,
		"sqlitePath", cfg.SQLitePath,
		"sensorDriver", cfg.SensorDriver,
		"sampleInterval", cfg.SampleInterval,
		"fanDriver", cfg.FanDriver,
		"retentionMonths", cfg.RetentionMonths,
		"weatherStationID", cfg.WeatherStationID,
		"mqttBroker", cfg.MQTTBroker,
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}

	sens, err := sensor.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	if cfg.AppEnv == "prod" && cfg.SensorDriver == "sim" {
		slog.Warn("simulated sensor driver in prod environment")
	}

	publisher := mqtt.NewPublisher(cfg, slog.Default())

	fanAct, err := fan.NewActuator(cfg, slog.Default())
	if err != nil {
		return err
	}
	fanCtrl, err := fan.NewController(fanAct, cfg.FanTempOnC, cfg.FanTempOffC, slog.Default(), func(st fan.State) {
		if err := publisher.PublishFanState(st); err != nil {
			slog.Warn("publish fan state failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	repo := repository.NewRepository(dbConn, cfg.Location)
	climateSvc := climateservice.NewService(repo, sens, fanCtrl, publisher, cfg, slog.Default())

	dwdClient := dwd.NewClient(cfg.WeatherBaseURL, cfg.WeatherFetchTimeout, slog.Default())
	weatherSvc := weatherservice.NewService(dwdClient, cfg, slog.Default())

	mux := httpapi.NewMux(dbConn)
	climate.RegisterFeature(mux, climateSvc, fanCtrl, cfg.Location)
	weather.RegisterFeature(mux, weatherSvc)
	httpapi.RegisterStatus(mux, httpapi.StatusDeps{
		Fan:     fanCtrl,
		Sampler: climateSvc,
		Weather: weatherSvc,
		CPUTemp: sensor.CPUTemperatureC,
	})

	// Use a short timeout for the initial MQTT connect so we don't block
	// startup when the broker is down (e.g. E2E).
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = publisher.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		// Continue so HTTP server and /healthz still work when MQTT is unavailable.
	}

	sched := scheduler.New(cfg, scheduler.Jobs{
		Sample: climateSvc.SampleOnce,
		FanCheck: func(context.Context) error {
			return fanCtrl.Reapply()
		},
		RetentionSweep: func(context.Context) error {
			cutoff := time.Now().In(cfg.Location).AddDate(0, -cfg.RetentionMonths, 0)
			deleted, err := repo.PurgeOlderThan(cutoff)
			if err != nil {
				return err
			}
			slog.Info("retention sweep finished", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
			return nil
		},
		WeatherRefresh: func(ctx context.Context) error {
			_, err := weatherSvc.Snapshot(ctx)
			return err
		},
	}, slog.Default())
	if err := sched.Start(); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("scheduler stopping")
	sched.Stop()

	if err := fanCtrl.ForceOff(); err != nil {
		slog.Error("forcing fan off", "error", err)
	}

	slog.Info("mqtt disconnecting")
	publisher.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if serveErr == nil {
		serveErr = <-errCh
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}

	if closer, ok := sens.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("sensor close", "error", err)
		}
	}

	return ctx.Err()
}
