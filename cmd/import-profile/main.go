package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"csf-data/internal/config"
	"csf-data/internal/ingest"
	"csf-data/internal/repository"
	"csf-data/internal/service"
	"csf-data/internal/store"
)

// import-profile loads a CSF profile CSV or XLSX straight into the
// configured store, bypassing the HTTP API. Useful for seeding an
// environment from the command line.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <profile.csv|profile.xlsx>", os.Args[0])
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read profile file: %v", err)
	}
	format := "csv"
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		format = "xlsx"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	kv, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeFn()

	zlog := zap.NewNop()
	svc := service.NewProfileService(
		repository.NewAssessmentsRepo(kv),
		repository.NewPeopleRepo(kv),
		repository.NewArtifactsRepo(kv),
		repository.NewBootstrapRepo(kv),
		service.NewLinkService(zlog),
		ingest.NewReferenceClient(zlog),
		service.Sources{ArtifactRefsURL: cfg.ArtifactRefsURL},
		zlog,
	)

	summary, err := svc.Import(ctx, data, format)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported %d rows (%d people created, %d artifacts created, %d enriched)\n",
		summary.Rows, summary.PeopleCreated, summary.ArtifactsCreated, summary.Enriched)
	for _, w := range summary.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return store.NewRedisKV(c), func() { _ = c.Close() }, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.GetDSN())
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresKV(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pg, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("STORE_BACKEND=%s has no persistent data to import into", cfg.StoreBackend)
	}
}
