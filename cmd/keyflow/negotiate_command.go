package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keyflow/internal/drm"
	"keyflow/internal/fakehost"
	"keyflow/internal/keysystem"
	"keyflow/internal/playback"
	"keyflow/internal/probecache"
)

// negotiate drives the full negotiation state machine against the scriptable
// in-memory host, which makes every failure mode reproducible from the
// command line.
func newNegotiateCommand(ctx *commandContext) *cobra.Command {
	var keySystemFlag string
	var videoCodecs []string
	var audioCodecs []string
	var denyAccess bool
	var failModule bool
	var failSession bool
	var failAttach bool
	var skipEncrypted bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Run a dry-run negotiation against the built-in fake host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			id := keysystem.ID(strings.TrimSpace(keySystemFlag))
			if id == "" {
				id = keysystem.ID(cfg.KeySystems.Preferred)
			}

			host := fakehost.New()
			host.SetScript(id, fakehost.Script{
				DenyAccess:  denyAccess,
				FailModule:  failModule,
				FailSession: failSession,
				FailAttach:  failAttach,
			})

			options := []drm.Option{
				drm.WithKeySystem(id),
				drm.WithCapabilityOptions(keysystem.Options{
					AudioRobustness: cfg.KeySystems.AudioRobustness,
					VideoRobustness: cfg.KeySystems.VideoRobustness,
				}),
			}

			var cache *probecache.Store
			if cfg.ProbeCache.Enabled {
				cache, err = probecache.Open(cfg.ProbeCache.Path)
				if err != nil {
					return fmt.Errorf("open probe cache: %w", err)
				}
				defer cache.Close()
				options = append(options, drm.WithProbeRecorder(cache))
			}

			var fatal error
			options = append(options, drm.WithFatalHandler(func(err error) { fatal = err }))

			controller := drm.NewController(host, keysystem.NewCatalog(), logger, options...)

			levels := make([]playback.Level, 0, len(videoCodecs))
			for i, codec := range videoCodecs {
				level := playback.Level{VideoCodec: codec}
				if i < len(audioCodecs) {
					level.AudioCodec = audioCodecs[i]
				}
				levels = append(levels, level)
			}
			for i := len(videoCodecs); i < len(audioCodecs); i++ {
				levels = append(levels, playback.Level{AudioCodec: audioCodecs[i]})
			}

			runCtx := cmd.Context()
			sink := fakehost.NewSink()
			controller.MediaAttached(runCtx, sink)
			controller.ManifestParsed(runCtx, levels)
			controller.Wait()
			if !skipEncrypted {
				sink.SignalEncrypted()
			}

			views := controller.Snapshot()
			state := controller.BindingState()

			if jsonOut {
				result := map[string]any{
					"key_system":    id,
					"entries":       views,
					"binding_state": state.String(),
					"attach_calls":  host.AttachCount(),
				}
				if fatal != nil {
					result["fatal"] = fatal.Error()
				}
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(views))
				for _, view := range views {
					rows = append(rows, []string{
						view.KeySystem.String(),
						yesNo(view.HasAccess),
						yesNo(view.HasModule),
						yesNo(view.HasSession),
						view.SessionID,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Key System", "Access", "Module", "Session", "Session ID"},
					rows,
					nil,
				))
				fmt.Fprintf(out, "Binding state: %s (attach calls: %d)\n", state, host.AttachCount())
			}

			if fatal != nil {
				return fatal
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keySystemFlag, "key-system", "", "Key system identifier (defaults to configured preference)")
	cmd.Flags().StringSliceVar(&videoCodecs, "video", []string{"avc1.4d401f"}, "Video codec identifiers, in manifest order")
	cmd.Flags().StringSliceVar(&audioCodecs, "audio", nil, "Audio codec identifiers, in manifest order")
	cmd.Flags().BoolVar(&denyAccess, "deny-access", false, "Script the host to reject the capability probe")
	cmd.Flags().BoolVar(&failModule, "fail-module", false, "Script the host to fail module creation")
	cmd.Flags().BoolVar(&failSession, "fail-session", false, "Script the host to fail session creation")
	cmd.Flags().BoolVar(&failAttach, "fail-attach", false, "Script the host to fail sink attachment")
	cmd.Flags().BoolVar(&skipEncrypted, "skip-encrypted", false, "Do not raise the encrypted-content notification")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
