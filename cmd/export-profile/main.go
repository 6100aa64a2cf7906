package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"csf-data/internal/config"
	"csf-data/internal/ingest"
	"csf-data/internal/repository"
	"csf-data/internal/service"
	"csf-data/internal/store"
)

// export-profile writes the stored CSF profile to a dated CSV or XLSX
// file in the current directory (or the path given with -o).
func main() {
	format := flag.String("format", "csv", "export format: csv or xlsx")
	out := flag.String("o", "", "output path (default: dated filename in current directory)")
	flag.Parse()

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
		service.Sources{},
		zlog,
	)

	var data []byte
	var filename string
	switch *format {
	case "xlsx":
		data, filename, err = svc.ExportXLSX(ctx)
	case "csv":
		data, filename, err = svc.ExportCSV(ctx)
	default:
		log.Fatalf("Unknown format %q (want csv or xlsx)", *format)
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	path := *out
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
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
		return nil, nil, fmt.Errorf("STORE_BACKEND=%s has no persistent data to export", cfg.StoreBackend)
	}
}
