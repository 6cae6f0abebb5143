package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"rewardhub/internal/config"
	"rewardhub/internal/handler"
	"rewardhub/internal/infrastructure/cache"
	"rewardhub/internal/infrastructure/database"
	"rewardhub/internal/infrastructure/lock"
	"rewardhub/internal/infrastructure/mq"
	"rewardhub/internal/job"
	"rewardhub/internal/logger"
	"rewardhub/internal/notify"
	"rewardhub/internal/repository"
	"rewardhub/internal/session"
	"rewardhub/internal/syncer"
	"rewardhub/internal/workflow"
	"rewardhub/pkg/idgen"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	if err := idgen.Init(cfg.Server.WorkerID); err != nil {
		logger.Fatalf("id generator: %v", err)
	}

	remote := openRecordStore(cfg)

	var syncOpts []syncer.Option
	syncOpts = append(syncOpts, syncer.WithApplyTimeout(cfg.Sync.ApplyTimeout))
	if cfg.Kafka.Enabled {
		producer, err := mq.NewSyncProducer(&cfg.Kafka)
		if err != nil {
			logger.Fatalf("kafka: %v", err)
		}
		publisher := mq.NewPublisher(producer, cfg.Kafka.Topic.SyncEvents)
		defer publisher.Close()
		syncOpts = append(syncOpts, syncer.WithPublisher(publisher))
	}
	syncWorker := syncer.New(remote, cfg.Sync.QueueSize, syncOpts...)

	engine := workflow.New(repository.NewMemoryUserRepository(), syncWorker, notify.NewLogNotifier())

	store, sessionOpts, closeSession := openSessionStore(cfg)
	defer closeSession()
	sessions := session.NewManager(engine, store, remote, sessionOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sessions.Restore(ctx); err != nil {
		logger.Fatalf("restore: %v", err)
	}

	go syncWorker.Start(ctx)
	go sessions.Start(ctx)

	resetJob := job.NewDailyResetJob(sessions, cfg.Session.ResetInterval)
	go resetJob.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := handler.SetupRouter(handler.NewHandler(engine, sessions))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	// no more writes can arrive; flush what is queued before stopping workers
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Sync.DrainTimeout)
	defer drainCancel()
	if err := syncWorker.Drain(drainCtx); err != nil {
		logger.Warn("sync queue not drained", "pending", syncWorker.Pending(), "error", err)
	}

	cancel()
	logger.Info("server stopped")
}

func openRecordStore(cfg *config.Config) repository.RecordStore {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory record store, data is lost on restart")
		return repository.NewMemoryStore()
	default:
		db, err := database.OpenMySQL(&cfg.MySQL)
		if err != nil {
			logger.Fatalf("mysql: %v", err)
		}
		return repository.NewGormStore(db)
	}
}

func openSessionStore(cfg *config.Config) (session.Store, []session.Option, func()) {
	if cfg.Session.Driver == config.DriverMemory {
		return session.NewMemoryStore(), nil, func() {}
	}

	client, err := cache.NewRedis(&cfg.Redis)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}

	owner := uuid.NewString()
	lockFactory := func(day string) session.Locker {
		return lock.NewDailyResetLock(client, cfg.Session.KeyPrefix, day, owner, cfg.Session.ResetLockTTL)
	}

	store := session.NewRedisStore(client, cfg.Session.KeyPrefix)
	return store, []session.Option{session.WithLockFactory(lockFactory)}, func() { closeRedis(client) }
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		logger.Error("close redis", "error", err)
	}
}
