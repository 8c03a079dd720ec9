package drm

import (
	"context"
	"log/slog"

	"keyflow/internal/logging"
)

// sessionManager creates key sessions for entries whose module has arrived.
type sessionManager struct {
	store  *Store
	logger *slog.Logger
}

func newSessionManager(store *Store, logger *slog.Logger) *sessionManager {
	return &sessionManager{
		store:  store,
		logger: logging.NewComponentLogger(logger, "sessions"),
	}
}

// EnsureSessions creates a session for every entry that has a module and no
// session yet. Idempotent: entries with a session are skipped. A failure is
// fatal to that entry only; the entry stays sessionless and is excluded from
// future key delivery.
func (m *sessionManager) EnsureSessions(ctx context.Context) {
	for _, entry := range m.store.sessionCandidates() {
		module := m.store.Module(entry)
		if module == nil {
			continue
		}
		session, err := module.CreateSession(ctx)
		if err != nil {
			wrapped := Wrap(ErrSessionCreationFailed, entry.KeySystem(), "session", "host refused session creation", err)
			m.logger.Error("key session creation failed",
				logging.Args(
					logging.String(logging.FieldKeySystem, entry.KeySystem().String()),
					logging.String(logging.FieldStep, "session"),
					logging.String(logging.FieldEventType, "session_create_failed"),
					logging.Error(wrapped),
				)...)
			continue
		}
		if !m.store.SetSession(entry, session) {
			// Raced with another EnsureSessions call; keep the first session.
			continue
		}
		m.logger.Info("key session created",
			logging.Args(
				logging.String(logging.FieldKeySystem, entry.KeySystem().String()),
				logging.String(logging.FieldStep, "session"),
				logging.String("session_id", session.ID()),
			)...)
	}
}
