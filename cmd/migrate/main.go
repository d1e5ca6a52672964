package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetpoint/meetpoint/internal/pkg/config"
	"github.com/meetpoint/meetpoint/internal/pkg/logging"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status>")
	}

	cfg, err := config.Load("meetpoint-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		log.Fatalf("create schema_migrations: %v", err)
	}

	files, err := migrationFiles()
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		if err := up(ctx, pool, files); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
	case "status":
		if err := status(ctx, pool, files); err != nil {
			log.Fatalf("migrate status: %v", err)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func migrationFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func applied(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	return done, nil
}

// up applies every pending file in its own transaction.
func up(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	done, err := applied(ctx, pool)
	if err != nil {
		return err
	}

	for _, f := range files {
		name := filepath.Base(f)
		if done[name] {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("exec %s: %w", name, err)
		}
		slog.Info("migration applied", "name", name)
	}

	slog.Info("all migrations applied", "total", len(files))
	return nil
}

func status(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	done, err := applied(ctx, pool)
	if err != nil {
		return err
	}
	for _, f := range files {
		name := filepath.Base(f)
		state := "pending"
		if done[name] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, name)
	}
	return nil
}
