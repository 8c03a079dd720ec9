package drm

import (
	"fmt"
	"sync"

	"keyflow/internal/keysystem"
)

// Entry is the unit of negotiated state: one key system, its capability
// access, and (once created) its decryption module and key session. Access is
// immutable after Append; Module and Session are each set at most once.
type Entry struct {
	keySystem keysystem.ID
	access    Access
	module    Module
	session   Session
}

// KeySystem returns the entry's key-system identifier.
func (e *Entry) KeySystem() keysystem.ID { return e.keySystem }

// Access returns the capability-access handle the entry owns.
func (e *Entry) Access() Access { return e.access }

// Store holds the ordered key-system entries for one playback attachment.
// A single mutex guards the entries and the sink-binding flag together so
// the binder's at-most-once transition stays atomic with respect to entry
// mutation.
type Store struct {
	mu       sync.Mutex
	entries  []*Entry
	attached bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append records a new entry for id with its granted access. At most one
// entry per key system may exist per attachment.
func (s *Store) Append(id keysystem.ID, access Access) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.keySystem == id {
			return nil, fmt.Errorf("entry for key system %q already exists", id)
		}
	}
	entry := &Entry{keySystem: id, access: access}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// SetModule records the decryption module created for entry. It fails if the
// module was already set.
func (s *Store) SetModule(entry *Entry, module Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.module != nil {
		return fmt.Errorf("module for key system %q already set", entry.keySystem)
	}
	entry.module = module
	return nil
}

// SetSession records the key session created for entry. It reports whether
// the session was stored; false means one already existed.
func (s *Store) SetSession(entry *Entry, session Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.session != nil {
		return false
	}
	entry.session = session
	return true
}

// Module returns the entry's module, or nil while creation is pending.
func (s *Store) Module(entry *Entry) Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entry.module
}

// Session returns the entry's session, or nil.
func (s *Store) Session(entry *Entry) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entry.session
}

// sessionCandidates returns the entries holding a module but no session yet.
func (s *Store) sessionCandidates() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Entry
	for _, entry := range s.entries {
		if entry.module != nil && entry.session == nil {
			out = append(out, entry)
		}
	}
	return out
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset clears all entries and the binding flag. Called when the playback
// attachment is torn down.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.attached = false
}

// EntryView is a read-only snapshot of one entry for display and assertions.
type EntryView struct {
	KeySystem  keysystem.ID `json:"key_system"`
	HasAccess  bool         `json:"has_access"`
	HasModule  bool         `json:"has_module"`
	HasSession bool         `json:"has_session"`
	SessionID  string       `json:"session_id,omitempty"`
}

// Snapshot returns entry views in insertion order.
func (s *Store) Snapshot() []EntryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]EntryView, 0, len(s.entries))
	for _, entry := range s.entries {
		view := EntryView{
			KeySystem:  entry.keySystem,
			HasAccess:  entry.access != nil,
			HasModule:  entry.module != nil,
			HasSession: entry.session != nil,
		}
		if entry.session != nil {
			view.SessionID = entry.session.ID()
		}
		views = append(views, view)
	}
	return views
}

// beginAttach atomically claims the one sink attachment. It returns the first
// entry (insertion order) holding a module. When no module exists the flag is
// left clear so a later encrypted notification may retry. The second return
// distinguishes "already attached" (nil, false) from "claimed" (entry, true).
func (s *Store) beginAttach() (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return nil, false
	}
	for _, entry := range s.entries {
		if entry.module != nil {
			s.attached = true
			return entry, true
		}
	}
	return nil, true
}

// cancelAttach releases a claim taken by beginAttach after a failed host
// attach call.
func (s *Store) cancelAttach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
}

// Attached reports whether a module has been bound to the sink.
func (s *Store) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}
