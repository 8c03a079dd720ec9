package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"keyflow/internal/keysystem"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var keySystemFlag string
	var videoCodecs []string
	var audioCodecs []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Show the capability configurations built for a codec set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			id := keysystem.ID(strings.TrimSpace(keySystemFlag))
			if id == "" {
				id = keysystem.ID(cfg.KeySystems.Preferred)
			}
			opts := keysystem.Options{
				AudioRobustness: cfg.KeySystems.AudioRobustness,
				VideoRobustness: cfg.KeySystems.VideoRobustness,
			}

			catalog := keysystem.NewCatalog()
			configs, err := catalog.Build(id, audioCodecs, videoCodecs, opts)
			if err != nil {
				return fmt.Errorf("build configurations: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"key_system":     id,
					"configurations": configs,
				})
			}

			rows := make([][]string, 0, len(configs))
			for i, config := range configs {
				for _, capability := range config.VideoCapabilities {
					rows = append(rows, []string{strconv.Itoa(i), "video", capability.ContentType, capability.Robustness})
				}
				for _, capability := range config.AudioCapabilities {
					rows = append(rows, []string{strconv.Itoa(i), "audio", capability.ContentType, capability.Robustness})
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key system: %s\n", id)
			fmt.Fprintln(out, renderTable(
				[]string{"Candidate", "Kind", "Content Type", "Robustness"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&keySystemFlag, "key-system", "", "Key system identifier (defaults to configured preference)")
	cmd.Flags().StringSliceVar(&videoCodecs, "video", nil, "Video codec identifiers, in manifest order")
	cmd.Flags().StringSliceVar(&audioCodecs, "audio", nil, "Audio codec identifiers, in manifest order")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
