package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/care-records/internal/config"
	"github.com/iliyamo/care-records/internal/database"
	"github.com/iliyamo/care-records/internal/handler"
	"github.com/iliyamo/care-records/internal/logger"
	"github.com/iliyamo/care-records/internal/metrics"
	"github.com/iliyamo/care-records/internal/queue"
	"github.com/iliyamo/care-records/internal/repository"
	"github.com/iliyamo/care-records/internal/router"
	"github.com/iliyamo/care-records/internal/scheduler"
)

// auditLogDir holds the care-record audit trail written by the consumer.
const auditLogDir = "logs"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	closer, err := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Dir: cfg.LogDir, Name: "server"})
	if err != nil {
		logrus.WithError(err).Fatal("setup logging")
	}
	defer closer.Close()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		n, err := database.Migrate(db)
		if err != nil {
			logrus.WithError(err).Fatal("apply migrations")
		}
		logrus.WithField("applied", n).Info("schema up to date")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New()
	m.RegisterDB(cfg.DBName, db.DB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pub   handler.EventPublisher
		async *queue.AsyncPublisher
	)
	consumerDone := make(chan struct{})
	if cfg.EventsEnabled {
		publisher := queue.NewPublisher(cfg.AMQPURL)
		defer publisher.Close()
		async = queue.NewAsyncPublisher(publisher, cfg.EventBuffer, cfg.EventTimeout, func(ev queue.CareRecordEvent, err error) {
			m.EventDelivered(ev.Kind, ev.Action, err)
		})
		pub = async

		audit, err := logger.NewRotatingFile(auditLogDir, "care_records.log")
		if err != nil {
			logrus.WithError(err).Fatal("open audit log")
		}
		defer audit.Close()
		go func() {
			defer close(consumerDone)
			_ = queue.NewConsumer(cfg.AMQPURL, audit).Run(ctx)
		}()
	} else {
		close(consumerDone)
	}

	tokens := repository.NewTokenRepo(db)
	sched := scheduler.New(tokens, m)
	if err := sched.Start(cfg.TokenPurgeSpec); err != nil {
		logrus.WithError(err).Fatal("start scheduler")
	}
	defer sched.Stop()

	users := repository.NewUserRepo(db)
	e := router.New(router.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Metrics:   m,

		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Users:     handler.NewUserAdminHandler(cfg, users),
		Directory: handler.NewDirectoryHandler(repository.NewDirectoryRepo(db)),
		Slots:     handler.NewSlotHandler(),

		PatrolRounds:          handler.NewPatrolRoundHandler(repository.NewPatrolRoundRepo(db), pub, m),
		DiaperChanges:         handler.NewDiaperChangeHandler(repository.NewDiaperChangeRepo(db), pub, m),
		RestraintObservations: handler.NewRestraintObservationHandler(repository.NewRestraintObservationRepo(db), pub, m),
		PositionChanges:       handler.NewPositionChangeHandler(repository.NewPositionChangeRepo(db), pub, m),
		HygieneRecords:        handler.NewHygieneHandler(repository.NewHygieneRepo(db), pub, m),
		IntakeOutput:          handler.NewIntakeOutputHandler(repository.NewIntakeOutputRepo(db), pub, m),
	})

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown")
	}
	if async != nil {
		if err := async.Close(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("pending care record events dropped")
		}
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logrus.Warn("consumer did not stop in time")
	}
}
