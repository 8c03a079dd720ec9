package drm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"keyflow/internal/keysystem"
	"keyflow/internal/logging"
)

// ProbeRecorder receives the outcome of each host capability probe. Optional;
// used for diagnostics only and never consulted during negotiation.
type ProbeRecorder interface {
	RecordProbe(ctx context.Context, id keysystem.ID, configs []keysystem.Configuration, granted bool, detail string)
}

// Negotiator drives the asynchronous access → module → session chain for one
// playback attachment. Each RequestAccess call runs its chain in a dedicated
// goroutine; the sequential composition inside that goroutine is what
// guarantees the per-entry ordering (access before module, module before
// session).
type Negotiator struct {
	host     Host
	catalog  *keysystem.Catalog
	store    *Store
	sessions *sessionManager
	logger   *slog.Logger
	recorder ProbeRecorder
	opts     keysystem.Options

	wg sync.WaitGroup
}

func newNegotiator(host Host, catalog *keysystem.Catalog, store *Store, sessions *sessionManager, logger *slog.Logger, recorder ProbeRecorder, opts keysystem.Options) *Negotiator {
	return &Negotiator{
		host:     host,
		catalog:  catalog,
		store:    store,
		sessions: sessions,
		logger:   logging.NewComponentLogger(logger, "negotiator"),
		recorder: recorder,
		opts:     opts,
	}
}

// RequestAccess builds candidate configurations for id and issues an
// asynchronous capability-access request. Build failures and empty candidate
// lists are recoverable and silent: playback may proceed unencrypted or fail
// later at the first encrypted sample. No retries are attempted.
func (n *Negotiator) RequestAccess(ctx context.Context, id keysystem.ID, audioCodecs, videoCodecs []string) {
	requestID := uuid.NewString()
	logger := n.logger.With(
		logging.String(logging.FieldRequestID, requestID),
		logging.String(logging.FieldKeySystem, id.String()),
	)

	configs, err := n.catalog.Build(id, audioCodecs, videoCodecs, n.opts)
	if err != nil {
		wrapped := Wrap(ErrUnsupportedKeySystem, id, "catalog", "no configuration builder registered", err)
		logger.Warn("cannot build capability configurations",
			logging.Args(
				logging.String(logging.FieldStep, "catalog"),
				logging.String(logging.FieldEventType, "catalog_build_failed"),
				logging.Error(wrapped),
			)...)
		return
	}
	if len(configs) == 0 {
		logger.Warn("catalog produced no candidate configurations",
			logging.Args(
				logging.String(logging.FieldStep, "catalog"),
				logging.String(logging.FieldEventType, "catalog_empty"),
			)...)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.negotiate(ctx, logger, id, configs)
	}()
}

// Wait blocks until every in-flight negotiation chain has finished.
func (n *Negotiator) Wait() {
	n.wg.Wait()
}

func (n *Negotiator) negotiate(ctx context.Context, logger *slog.Logger, id keysystem.ID, configs []keysystem.Configuration) {
	access, err := n.host.RequestAccess(ctx, id, configs)
	if err != nil {
		n.recordProbe(ctx, id, configs, false, err.Error())
		wrapped := Wrap(ErrKeySystemAccessDenied, id, "access", "host rejected all candidate configurations", err)
		logger.Warn("capability access denied",
			logging.Args(
				logging.String(logging.FieldStep, "access"),
				logging.String(logging.FieldEventType, "access_denied"),
				logging.String(logging.FieldErrorHint, "content may still play unencrypted"),
				logging.Error(wrapped),
			)...)
		return
	}
	n.recordProbe(ctx, id, configs, true, "")

	entry, err := n.store.Append(id, access)
	if err != nil {
		logger.Warn("discarding duplicate capability access",
			logging.Args(
				logging.String(logging.FieldStep, "access"),
				logging.String(logging.FieldEventType, "duplicate_entry"),
				logging.Error(err),
			)...)
		return
	}
	logger.Info("capability access granted",
		logging.Args(logging.String(logging.FieldStep, "access"))...)

	module, err := access.CreateModule(ctx)
	if err != nil {
		wrapped := Wrap(ErrModuleCreationFailed, id, "module", "host failed to create decryption module", err)
		logger.Error("decryption module creation failed",
			logging.Args(
				logging.String(logging.FieldStep, "module"),
				logging.String(logging.FieldEventType, "module_create_failed"),
				logging.String(logging.FieldErrorHint, "entry is excluded from sink binding"),
				logging.Error(wrapped),
			)...)
		return
	}
	if err := n.store.SetModule(entry, module); err != nil {
		logger.Error("discarding duplicate decryption module",
			logging.Args(
				logging.String(logging.FieldStep, "module"),
				logging.Error(err),
			)...)
		return
	}
	logger.Info("decryption module created",
		logging.Args(logging.String(logging.FieldStep, "module"))...)

	n.sessions.EnsureSessions(ctx)
}

func (n *Negotiator) recordProbe(ctx context.Context, id keysystem.ID, configs []keysystem.Configuration, granted bool, detail string) {
	if n.recorder == nil {
		return
	}
	n.recorder.RecordProbe(ctx, id, configs, granted, detail)
}
