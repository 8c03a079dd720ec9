package drm

import (
	"context"
	"log/slog"
	"sync"

	"keyflow/internal/keysystem"
	"keyflow/internal/logging"
	"keyflow/internal/playback"
)

// Controller wires the negotiation core to the playback engine's lifecycle
// notifications. One controller exists per playback attachment; Detach tears
// its state down.
type Controller struct {
	logger     *slog.Logger
	store      *Store
	negotiator *Negotiator
	binder     *Binder

	keySystem keysystem.ID
	onFatal   func(error)

	mu   sync.Mutex
	sink Sink
}

// Option configures optional Controller behavior.
type Option func(*controllerOptions)

type controllerOptions struct {
	keySystem keysystem.ID
	capOpts   keysystem.Options
	recorder  ProbeRecorder
	onFatal   func(error)
}

// WithKeySystem overrides the key system requested for protected content.
func WithKeySystem(id keysystem.ID) Option {
	return func(o *controllerOptions) { o.keySystem = id }
}

// WithCapabilityOptions sets vendor options folded into built configurations.
func WithCapabilityOptions(opts keysystem.Options) Option {
	return func(o *controllerOptions) { o.capOpts = opts }
}

// WithProbeRecorder records host probe outcomes for diagnostics.
func WithProbeRecorder(recorder ProbeRecorder) Option {
	return func(o *controllerOptions) { o.recorder = recorder }
}

// WithFatalHandler receives ErrNoModuleAvailable when encrypted content is
// observed and no module can be bound, so the playback engine can fail the
// attempt visibly.
func WithFatalHandler(fn func(error)) Option {
	return func(o *controllerOptions) { o.onFatal = fn }
}

// NewController constructs the negotiation core for one playback attachment.
func NewController(host Host, catalog *keysystem.Catalog, logger *slog.Logger, opts ...Option) *Controller {
	options := &controllerOptions{keySystem: keysystem.Widevine}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store := NewStore()
	sessions := newSessionManager(store, logger)
	c := &Controller{
		logger:     logging.NewComponentLogger(logger, "controller"),
		store:      store,
		negotiator: newNegotiator(host, catalog, store, sessions, logger, options.recorder, options.capOpts),
		binder:     newBinder(host, store, logger),
		keySystem:  options.keySystem,
		onFatal:    options.onFatal,
	}
	return c
}

// MediaAttaching is a reserved hook point; the core takes no action yet.
func (c *Controller) MediaAttaching() {}

// LevelSwitched is a reserved hook point; the core takes no action yet.
func (c *Controller) LevelSwitched() {}

// MediaAttached records the playback sink and registers the encrypted-content
// callback on it.
func (c *Controller) MediaAttached(ctx context.Context, sink Sink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()

	sink.OnEncrypted(func() {
		c.handleEncrypted(ctx, sink)
	})
	c.logger.Debug("playback sink attached; encrypted callback registered")
}

// ManifestParsed extracts codec lists from the parsed quality levels and
// triggers capability negotiation for the configured key system.
func (c *Controller) ManifestParsed(ctx context.Context, levels []playback.Level) {
	audioCodecs, videoCodecs := playback.CodecLists(levels)
	c.logger.Debug("manifest parsed",
		logging.Args(
			logging.String(logging.FieldKeySystem, c.keySystem.String()),
			logging.Int("audio_codecs", len(audioCodecs)),
			logging.Int("video_codecs", len(videoCodecs)),
		)...)
	c.negotiator.RequestAccess(ctx, c.keySystem, audioCodecs, videoCodecs)
}

func (c *Controller) handleEncrypted(ctx context.Context, sink Sink) {
	err := c.binder.HandleEncrypted(ctx, sink)
	if err != nil && c.onFatal != nil {
		c.onFatal(err)
	}
}

// Detach tears down the negotiation state for this playback attachment:
// drains in-flight negotiations, clears the store, and resets the binding
// flag. The controller may be reused for a new attachment afterwards.
func (c *Controller) Detach() {
	c.negotiator.Wait()
	c.store.Reset()
	c.mu.Lock()
	c.sink = nil
	c.mu.Unlock()
	c.logger.Debug("playback attachment torn down")
}

// Wait blocks until in-flight negotiations settle. Intended for harnesses
// and tests that need a quiescent store before inspecting it.
func (c *Controller) Wait() {
	c.negotiator.Wait()
}

// Snapshot exposes the store contents for display and assertions.
func (c *Controller) Snapshot() []EntryView {
	return c.store.Snapshot()
}

// BindingState reports whether a module has been bound to the sink.
func (c *Controller) BindingState() State {
	return c.binder.State()
}

// EnsureSessions re-runs session creation for entries that acquired a module
// but no session. Safe to call at any time; idempotent.
func (c *Controller) EnsureSessions(ctx context.Context) {
	c.negotiator.sessions.EnsureSessions(ctx)
}
