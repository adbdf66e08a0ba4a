package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/engine/cache"
)

// NewCacheClearCmd creates the cache clear command.
func NewCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results and tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cache.Open(cmd.Context(), config.GetGlobalConfig().CacheOptions())
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				if errors.Is(err, cache.ErrCacheDisabled) {
					cmd.Printf("Cache is disabled\n")
					return nil
				}
				return fmt.Errorf("clearing cache: %w", err)
			}
			cmd.Printf("Cache cleared\n")
			return nil
		},
	}
}

// NewCacheStatsCmd creates the cache stats command.
func NewCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if !cfg.Cache.Enabled {
				cmd.Printf("Cache is disabled\n")
				return nil
			}

			store, err := cache.Open(cmd.Context(), cfg.CacheOptions())
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Backend:  %s\n", stats.Backend)
			_, _ = fmt.Fprintf(w, "Location: %s\n", stats.Location)
			_, _ = fmt.Fprintf(w, "Entries:  %d\n", stats.Entries)
			_, _ = fmt.Fprintf(w, "Size:     %d bytes\n", stats.SizeBytes)
			_, _ = fmt.Fprintf(w, "TTL:      %ds\n", stats.TTLSeconds)
			return nil
		},
	}
}
