// Package drm implements the capability-negotiation and key/session
// lifecycle core: requesting capability access from the host, creating a
// decryption module and its key session per key system, and attaching the
// first available module to the playback sink exactly once.
//
// One Controller exists per playback attachment. All negotiated state lives
// in its Store; tearing the attachment down clears the store and the binding
// flag. Each negotiation runs access, module creation, and session creation
// strictly in that order inside a single goroutine, so no continuation can
// observe an entry ahead of its lifecycle.
package drm
