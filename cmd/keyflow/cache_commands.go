package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyflow/internal/probecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the capability-probe outcome cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func (c *commandContext) withProbeCache(fn func(*probecache.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := probecache.Open(cfg.ProbeCache.Path)
	if err != nil {
		return fmt.Errorf("open probe cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List recorded capability-probe outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProbeCache(func(store *probecache.Store) error {
				outcomes, err := store.Outcomes(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, outcomes)
				}
				if len(outcomes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Probe cache is empty.")
					return nil
				}
				rows := make([][]string, 0, len(outcomes))
				for _, outcome := range outcomes {
					granted := "denied"
					if outcome.Granted {
						granted = "granted"
					}
					rows = append(rows, []string{
						outcome.KeySystem,
						outcome.ConfigDigest,
						granted,
						outcome.Detail,
						outcome.UpdatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Key System", "Digest", "Outcome", "Detail", "Updated"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded probe outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProbeCache(func(store *probecache.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Probe cache cleared.")
				return nil
			})
		},
	}
}
