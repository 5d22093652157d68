package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wikimdb/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the rating cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats := store.Stats()
			cfg := ctx.configValue()
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"backend":    cfg.Cache.Backend,
					"format_key": store.Name(),
					"subjects":   stats.Subjects,
					"negatives":  stats.Negatives,
					"ratings":    stats.Ratings,
					"unrated":    stats.Unrated,
				})
			}
			rows := [][]string{
				{"Backend", cfg.Cache.Backend},
				{"Format key", store.Name()},
				{"Subjects", strconv.Itoa(stats.Subjects)},
				{"Subjects without match", strconv.Itoa(stats.Negatives)},
				{"Ratings", strconv.Itoa(stats.Ratings)},
				{"Ids without rating", strconv.Itoa(stats.Unrated)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached keys and values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			var rows [][]string
			for _, key := range store.Keys() {
				if prefix != "" && !strings.HasPrefix(key, prefix) {
					continue
				}
				raw, _ := store.Get(key)
				rows = append(rows, []string{key, string(raw)})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, []string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only keys starting with this prefix")
	return cmd
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>...",
		Short: "Remove cache entries so they are resolved again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				key := strings.TrimSpace(arg)
				if !strings.HasPrefix(key, cache.RatingPrefix) {
					key = string(parseSubject(key))
				}
				removed, err := store.Delete(cmd.Context(), key)
				if err != nil {
					return fmt.Errorf("remove %s: %w", key, err)
				}
				if removed {
					fmt.Fprintf(out, "Removed %s\n", key)
				} else {
					fmt.Fprintf(out, "%s not cached\n", key)
				}
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the cache without --yes")
			}
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			count := store.Len()
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the cache")
	return cmd
}
