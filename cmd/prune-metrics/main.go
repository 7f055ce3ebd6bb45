// Command prune-metrics deletes corridor aggregates older than the
// retention window. Meant to run as a scheduled job next to the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adetumilara/stellar-insights/internal/database"
)

func main() {
	var (
		databaseURL   = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		retentionDays = flag.Int("retention-days", 90, "Days of corridor metrics to keep")
		dryRun        = flag.Bool("dry-run", false, "Dry run mode (don't delete anything)")
		verbose       = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}
	if *retentionDays < 1 {
		log.Fatal("Retention must be at least one day")
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx := context.Background()
	pool, err := database.Connect(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	slog.Info("Connected to database", "url", sanitizeURL(*databaseURL))

	if err := pruneMetrics(ctx, pool, *retentionDays, *dryRun); err != nil {
		log.Fatalf("Prune failed: %v", err)
	}

	slog.Info("Prune complete")
}

func pruneMetrics(ctx context.Context, pool *pgxpool.Pool, retentionDays int, dryRun bool) error {
	start := time.Now()
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	slog.Info("Starting prune", "cutoff", cutoff.Format("2006-01-02"), "dry_run", dryRun)

	var candidates int64
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM corridor_metrics_daily WHERE metric_date < $1::date
	`, cutoff).Scan(&candidates)
	if err != nil {
		return fmt.Errorf("failed to count prunable rows: %w", err)
	}

	if dryRun {
		slog.Info("Dry run, nothing deleted", "candidates", candidates)
		return nil
	}

	tag, err := pool.Exec(ctx, `
		DELETE FROM corridor_metrics_daily WHERE metric_date < $1::date
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old metrics: %w", err)
	}

	slog.Info("Prune summary",
		"candidates", candidates,
		"deleted", tag.RowsAffected(),
		"duration_ms", time.Since(start).Milliseconds())

	if tag.RowsAffected() != candidates {
		slog.Warn("Deleted row count differs from candidate count",
			"expected", candidates,
			"actual", tag.RowsAffected())
	}

	return nil
}

func sanitizeURL(url string) string {
	// Hide password in database URL for logging
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) == 2 {
			credParts := strings.Split(parts[0], ":")
			if len(credParts) >= 2 {
				return credParts[0] + ":***@" + parts[1]
			}
		}
	}
	return url
}
