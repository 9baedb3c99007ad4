package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/vastra-group/storefront-api/internal/app"
	"github.com/vastra-group/storefront-api/internal/config"
	"github.com/vastra-group/storefront-api/internal/coupon"
	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/lock"
	"github.com/vastra-group/storefront-api/internal/obs"
)

const taskCouponSweep = "coupon:expire_sweep"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storefront")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewDBPool(ctx, cfg, "storefront-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise database")
	}
	defer pool.Close()

	couponSvc := coupon.NewService(pool, db.New(pool))

	redisClient, err := app.NewRedisClient(ctx, cfg, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	locker := lock.Locker{R: redisClient}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	spec := fmt.Sprintf("@every %s", cfg.CouponSweepPeriod)
	if _, err := scheduler.Register(spec, asynq.NewTask(taskCouponSweep, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register coupon sweep")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskCouponSweep, func(taskCtx context.Context, _ *asynq.Task) error {
		// Only one worker instance sweeps per period.
		return locker.WithLock(taskCtx, "lock:"+taskCouponSweep, time.Minute, func(lockCtx context.Context) error {
			swept, err := couponSvc.SweepExpired(lockCtx)
			if err != nil {
				if obs.CouponSweepTotal != nil {
					obs.CouponSweepTotal.WithLabelValues("error").Inc()
				}
				logger.Error().Err(err).Msg("coupon sweep failed")
				return err
			}
			if obs.CouponSweepTotal != nil {
				obs.CouponSweepTotal.WithLabelValues("ok").Inc()
			}
			logger.Info().Int64("deactivated", swept).Msg("coupon sweep complete")
			return nil
		})
	})

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{logger},
	})

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	if err := server.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	logger.Info().Str("task", taskCouponSweep).Str("period", cfg.CouponSweepPeriod.String()).Msg("worker started")
	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	server.Shutdown()
}

// asynqLogger adapts zerolog to asynq's logging interface.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
