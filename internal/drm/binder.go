package drm

import (
	"context"
	"log/slog"

	"keyflow/internal/logging"
)

// State is the binder's attachment state for one playback attachment.
type State int

const (
	// StateUnattached means no decryption module has been bound to the sink.
	StateUnattached State = iota
	// StateAttached is terminal for the lifetime of one playback attachment.
	StateAttached
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	default:
		return "unattached"
	}
}

// Binder attaches the first available decryption module to the playback sink
// exactly once, gated on the sink having observed encrypted content. The
// attachment flag lives in the store, under the same mutex as the entries.
type Binder struct {
	host   Host
	store  *Store
	logger *slog.Logger
}

func newBinder(host Host, store *Store, logger *slog.Logger) *Binder {
	return &Binder{
		host:   host,
		store:  store,
		logger: logging.NewComponentLogger(logger, "binder"),
	}
}

// HandleEncrypted reacts to one "encrypted content observed" notification.
// While attached it is a no-op. Otherwise it selects the first store entry
// (insertion order) holding a module and binds it to sink.
//
// When no entry has a module the binder reports ErrNoModuleAvailable and
// stays unattached: a module arriving later does not retrigger binding, but a
// subsequent encrypted notification re-attempts it. Retry policy beyond that
// belongs to the caller.
func (b *Binder) HandleEncrypted(ctx context.Context, sink Sink) error {
	entry, claimed := b.store.beginAttach()
	if !claimed {
		b.logger.Debug("sink already bound; ignoring encrypted notification")
		return nil
	}
	if entry == nil {
		err := Wrap(ErrNoModuleAvailable, "", "attach", "encrypted content observed before any decryption module exists", nil)
		b.logger.Error("cannot bind decryption module",
			logging.Args(
				logging.String(logging.FieldStep, "attach"),
				logging.String(logging.FieldEventType, "no_module_available"),
				logging.String(logging.FieldErrorHint, "playback of encrypted samples will fail"),
				logging.Error(err),
			)...)
		return err
	}

	module := b.store.Module(entry)
	if err := b.host.AttachModule(ctx, sink, module); err != nil {
		b.store.cancelAttach()
		wrapped := Wrap(ErrNoModuleAvailable, entry.KeySystem(), "attach", "host failed to attach module to sink", err)
		b.logger.Error("module attachment failed",
			logging.Args(
				logging.String(logging.FieldKeySystem, entry.KeySystem().String()),
				logging.String(logging.FieldStep, "attach"),
				logging.String(logging.FieldEventType, "attach_failed"),
				logging.Error(wrapped),
			)...)
		return wrapped
	}

	b.logger.Info("decryption module bound to sink",
		logging.Args(
			logging.String(logging.FieldKeySystem, entry.KeySystem().String()),
			logging.String(logging.FieldStep, "attach"),
		)...)
	return nil
}

// State reports the binder's current state.
func (b *Binder) State() State {
	if b.store.Attached() {
		return StateAttached
	}
	return StateUnattached
}
