// Package fakehost provides a scriptable in-memory implementation of the
// host decryption boundary. The CLI uses it for dry-run negotiations and the
// drm tests use it to exercise every failure mode without a real platform.
package fakehost

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"keyflow/internal/drm"
	"keyflow/internal/keysystem"
)

// Script describes how the host reacts to one key system.
type Script struct {
	// DenyAccess rejects the capability probe outright.
	DenyAccess bool
	// FailModule makes decryption-module creation fail after access succeeds.
	FailModule bool
	// FailSession makes key-session creation fail after the module exists.
	FailSession bool
	// FailAttach makes the sink attachment call fail.
	FailAttach bool
	// Delay is applied before each asynchronous step resolves.
	Delay time.Duration
}

// ProbeCall records one capability probe the host received.
type ProbeCall struct {
	KeySystem keysystem.ID
	Configs   []keysystem.Configuration
}

// Host is a scriptable drm.Host.
type Host struct {
	mu      sync.Mutex
	scripts map[keysystem.ID]Script
	probes  []ProbeCall
	attach  int
}

// New returns a host that grants every probe until scripted otherwise.
func New() *Host {
	return &Host{scripts: make(map[keysystem.ID]Script)}
}

// SetScript installs the reaction script for id.
func (h *Host) SetScript(id keysystem.ID, script Script) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts[id] = script
}

func (h *Host) script(id keysystem.ID) Script {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scripts[id]
}

// Probes returns the capability probes received so far.
func (h *Host) Probes() []ProbeCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ProbeCall, len(h.probes))
	copy(out, h.probes)
	return out
}

// AttachCount reports how many attach calls the host received.
func (h *Host) AttachCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attach
}

func (h *Host) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RequestAccess implements drm.Host.
func (h *Host) RequestAccess(ctx context.Context, id keysystem.ID, configs []keysystem.Configuration) (drm.Access, error) {
	h.mu.Lock()
	h.probes = append(h.probes, ProbeCall{KeySystem: id, Configs: configs})
	h.mu.Unlock()

	script := h.script(id)
	if err := h.wait(ctx, script.Delay); err != nil {
		return nil, err
	}
	if script.DenyAccess {
		return nil, errors.New("no viable configuration")
	}
	if len(configs) == 0 {
		return nil, errors.New("no candidate configurations supplied")
	}
	return &access{host: h, id: id, config: configs[0]}, nil
}

// AttachModule implements drm.Host.
func (h *Host) AttachModule(_ context.Context, _ drm.Sink, module drm.Module) error {
	mod, ok := module.(*moduleImpl)
	if !ok || module == nil {
		return errors.New("foreign module handed to host")
	}
	if h.script(mod.id).FailAttach {
		return errors.New("sink rejected module")
	}
	h.mu.Lock()
	h.attach++
	h.mu.Unlock()
	return nil
}

type access struct {
	host   *Host
	id     keysystem.ID
	config keysystem.Configuration
}

func (a *access) KeySystem() keysystem.ID { return a.id }

func (a *access) Configuration() keysystem.Configuration { return a.config }

func (a *access) CreateModule(ctx context.Context) (drm.Module, error) {
	script := a.host.script(a.id)
	if err := a.host.wait(ctx, script.Delay); err != nil {
		return nil, err
	}
	if script.FailModule {
		return nil, errors.New("module initialization failed")
	}
	return &moduleImpl{host: a.host, id: a.id}, nil
}

type moduleImpl struct {
	host *Host
	id   keysystem.ID
}

func (m *moduleImpl) CreateSession(_ context.Context) (drm.Session, error) {
	if m.host.script(m.id).FailSession {
		return nil, errors.New("session rejected")
	}
	return &session{id: uuid.NewString()}, nil
}

type session struct {
	id string
}

func (s *session) ID() string { return s.id }

// Sink is a minimal playback sink that records encrypted callbacks and lets
// harnesses raise the notification on demand.
type Sink struct {
	mu  sync.Mutex
	fns []func()
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// OnEncrypted implements drm.Sink.
func (s *Sink) OnEncrypted(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

// SignalEncrypted invokes every registered callback once, simulating the sink
// observing encrypted content.
func (s *Sink) SignalEncrypted() {
	s.mu.Lock()
	fns := make([]func(), len(s.fns))
	copy(fns, s.fns)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
