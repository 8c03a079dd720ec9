package drm

import (
	"context"

	"keyflow/internal/keysystem"
)

// Host is the boundary to the platform's decryption capability. It can only
// be probed, not enumerated, and may reject any configuration.
type Host interface {
	// RequestAccess probes the host with ordered candidate configurations
	// and returns a capability-access handle for the first viable one.
	RequestAccess(ctx context.Context, id keysystem.ID, configs []keysystem.Configuration) (Access, error)
	// AttachModule binds a decryption module to the playback sink. Synchronous.
	AttachModule(ctx context.Context, sink Sink, module Module) error
}

// Access is a host-granted handle confirming a key-system/configuration pair
// is usable.
type Access interface {
	KeySystem() keysystem.ID
	// Configuration reports the candidate the host actually granted.
	Configuration() keysystem.Configuration
	CreateModule(ctx context.Context) (Module, error)
}

// Module is a decryption-module instance for one key system.
type Module interface {
	CreateSession(ctx context.Context) (Session, error)
}

// Session is a module-scoped context for one piece of encrypted content,
// retained for future key delivery.
type Session interface {
	ID() string
}

// Sink is the playback element that renders media and raises "encrypted
// content observed" notifications.
type Sink interface {
	// OnEncrypted registers fn to run whenever the sink observes encrypted
	// content. Multiple registrations are all invoked.
	OnEncrypted(fn func())
}
