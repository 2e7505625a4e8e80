package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/harvestctl/internal/cache"
	"github.com/Tiliavir/harvestctl/internal/config"
)

var cachePurgeOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the lookup cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.OutOrStdout(), func(store cache.Persistent) error {
			infos, err := store.List()
			if err != nil {
				return runtimeErr(err)
			}
			printCacheList(cmd.OutOrStdout(), infos, time.Now())
			return nil
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached responses",
	Long: `Remove cached responses so the next lookup asks the API again.
Without --older-than every entry is removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.OutOrStdout(), func(store cache.Persistent) error {
			n, err := store.Purge(cachePurgeOlderThan)
			if err != nil {
				return runtimeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached %s.\n", n, plural(n, "response", "responses"))
			return nil
		})
	},
}

func init() {
	cachePurgeCmd.Flags().DurationVar(&cachePurgeOlderThan, "older-than", 0, "Only remove entries older than this (e.g. 24h)")
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
}

// withStore opens the configured persistent store without touching
// credentials. Backends that do not outlive the process have nothing to show.
func withStore(w io.Writer, fn func(cache.Persistent) error) error {
	cfg, err := config.Load()
	if err != nil {
		return usageErr(err)
	}
	c, err := openCache(cfg.Cache)
	if err != nil {
		return usageErr(err)
	}
	if cl, ok := c.(io.Closer); ok {
		defer cl.Close()
	}
	store, ok := c.(cache.Persistent)
	if !ok {
		fmt.Fprintf(w, "Cache backend %q keeps nothing between runs.\n", cfg.Cache.Backend)
		return nil
	}
	return fn(store)
}

func printCacheList(w io.Writer, infos []cache.Info, now time.Time) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return
	}
	var total uint64
	for _, info := range infos {
		size := uint64(info.Size)
		total += size
		fmt.Fprintf(w, "%-60s %10s  %s\n", info.Key, humanize.Bytes(size), humanize.RelTime(info.StoredAt, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "%d %s, %s\n", len(infos), plural(len(infos), "entry", "entries"), humanize.Bytes(total))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
