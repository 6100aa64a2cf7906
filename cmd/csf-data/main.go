package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"csf-data/internal/config"
	httpapi "csf-data/internal/http"
	"csf-data/internal/ingest"
	"csf-data/internal/logger"
	"csf-data/internal/repository"
	"csf-data/internal/service"
	"csf-data/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "csf-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store backend selection. Memory is the dev default; redis and
	// postgres share the same revisioned blob semantics.
	var kv store.KV
	var redisClient *redis.Client
	var db *sql.DB
	switch cfg.StoreBackend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		log.Info("store backend: redis", zap.String("addr", cfg.Redis.Addr))
	case "postgres":
		db, err = sql.Open("postgres", cfg.Database.GetDSN())
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		pg := store.NewPostgresKV(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("ensure postgres schema failed", zap.Error(err))
		}
		kv = pg
		log.Info("store backend: postgres", zap.String("host", cfg.Database.Host))
	default:
		kv = store.NewMemoryKV()
		log.Info("store backend: memory")
	}
	notifier := store.NewNotifier(kv)

	assessmentsRepo := repository.NewAssessmentsRepo(notifier)
	peopleRepo := repository.NewPeopleRepo(notifier)
	artifactsRepo := repository.NewArtifactsRepo(notifier)
	bootstrapRepo := repository.NewBootstrapRepo(notifier)

	links := service.NewLinkService(log)
	refs := ingest.NewReferenceClient(log)
	sources := service.Sources{
		SeedURL:         cfg.Seed.URL,
		SeedPath:        cfg.Seed.Path,
		ArtifactRefsURL: cfg.ArtifactRefsURL,
		LegendURL:       cfg.Legend.URL,
		LegendPath:      cfg.Legend.Path,
	}
	profileSvc := service.NewProfileService(assessmentsRepo, peopleRepo, artifactsRepo, bootstrapRepo, links, refs, sources, log)
	peopleSvc := service.NewPeopleService(peopleRepo, assessmentsRepo, links, log)
	artifactsSvc := service.NewArtifactService(artifactsRepo, assessmentsRepo, links, log)

	if err := profileSvc.Bootstrap(ctx); err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewAssessmentHandler(profileSvc, log),
		httpapi.NewPeopleHandler(peopleSvc, log),
		httpapi.NewArtifactHandler(artifactsSvc, log),
		httpapi.NewProfileHandler(profileSvc, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
