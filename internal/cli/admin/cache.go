package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/repository"
)

func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and invalidate cache entries",
		Long:  "Inspect analysis cache entries and invalidate stale ones",
	}

	cmd.AddCommand(CacheListCmd())
	cmd.AddCommand(CacheGetCmd())
	cmd.AddCommand(CacheInvalidateCmd())

	return cmd
}

func CacheListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cache entries",
		Long:  "List cache entries ordered by most recently updated",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			outputFormat, _ := cmd.Flags().GetString("output")

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := repository.NewCacheEntryRepository(pool).List(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list cache entries: %w", err)
			}

			if outputFormat == "json" {
				rows := make([]map[string]interface{}, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, map[string]interface{}{
						"repo_key":     entry.RepoKey,
						"content_hash": entry.ContentHash,
						"file_count":   len(entry.FileHashes),
						"last_checked": entry.LastChecked,
						"updated_at":   entry.UpdatedAt,
					})
				}
				jsonBytes, _ := json.MarshalIndent(rows, "", "  ")
				fmt.Println(string(jsonBytes))
				return nil
			}

			for _, entry := range entries {
				fmt.Printf("%s\tfiles=%d\tlast_checked=%s\n",
					entry.RepoKey, len(entry.FileHashes), entry.LastChecked.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to list")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func CacheGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show one cache entry",
		Long:  "Show one cache entry including its analysis payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			key := args[0]

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			entry, err := repository.NewCacheEntryRepository(pool).Get(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to get cache entry: %w", err)
			}

			data := map[string]interface{}{
				"repo_key":     entry.RepoKey,
				"content_hash": entry.ContentHash,
				"file_hashes":  entry.FileHashes,
				"payload":      entry.AnalysisPayload,
				"last_checked": entry.LastChecked,
				"created_at":   entry.CreatedAt,
				"updated_at":   entry.UpdatedAt,
			}
			jsonBytes, _ := json.MarshalIndent(data, "", "  ")
			fmt.Println(string(jsonBytes))
			return nil
		},
	}

	return cmd
}

func CacheInvalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate <key>",
		Short: "Invalidate a cache entry",
		Long:  "Drop a cache entry so the next analysis runs from scratch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			key := args[0]

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			detector := cache.NewDetector(repository.NewCacheEntryRepository(pool), cache.Options{})
			if err := detector.Invalidate(ctx, key); err != nil {
				return fmt.Errorf("failed to invalidate cache entry: %w", err)
			}

			fmt.Printf("Cache entry invalidated: %s\n", key)
			return nil
		},
	}

	return cmd
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}
