package drm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"keyflow/internal/drm"
	"keyflow/internal/fakehost"
	"keyflow/internal/keysystem"
)

func TestEncryptedBeforeModuleIsFatalButRetriable(t *testing.T) {
	host := fakehost.New()
	host.SetScript(keysystem.Widevine, fakehost.Script{DenyAccess: true})

	var fatal error
	ctrl := newController(t, host, drm.WithFatalHandler(func(err error) { fatal = err }))

	ctx := context.Background()
	sink := fakehost.NewSink()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.Wait()

	sink.SignalEncrypted()
	if !errors.Is(fatal, drm.ErrNoModuleAvailable) {
		t.Fatalf("expected ErrNoModuleAvailable, got %v", fatal)
	}
	if ctrl.BindingState() != drm.StateUnattached {
		t.Fatalf("binder should stay unattached, got %v", ctrl.BindingState())
	}

	// A module becomes available later; only the next notification binds.
	host.SetScript(keysystem.Widevine, fakehost.Script{})
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.Wait()
	if ctrl.BindingState() != drm.StateUnattached {
		t.Fatal("module arrival alone must not trigger binding")
	}

	fatal = nil
	sink.SignalEncrypted()
	if fatal != nil {
		t.Fatalf("unexpected fatal error on retry: %v", fatal)
	}
	if ctrl.BindingState() != drm.StateAttached {
		t.Fatal("expected attachment after second notification")
	}
	if host.AttachCount() != 1 {
		t.Fatalf("expected exactly 1 attach call, got %d", host.AttachCount())
	}
}

func TestRepeatedEncryptedNotificationsAttachOnce(t *testing.T) {
	host := fakehost.New()
	ctrl := newController(t, host)

	ctx := context.Background()
	sink := fakehost.NewSink()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.Wait()

	// One notification per encrypted track.
	sink.SignalEncrypted()
	sink.SignalEncrypted()
	sink.SignalEncrypted()

	if host.AttachCount() != 1 {
		t.Fatalf("expected exactly 1 attach call, got %d", host.AttachCount())
	}
	if ctrl.BindingState() != drm.StateAttached {
		t.Fatalf("expected attached state, got %v", ctrl.BindingState())
	}
}

func TestAttachFailureLeavesBinderUnattached(t *testing.T) {
	host := fakehost.New()
	host.SetScript(keysystem.Widevine, fakehost.Script{FailAttach: true})

	var fatal error
	ctrl := newController(t, host, drm.WithFatalHandler(func(err error) { fatal = err }))

	ctx := context.Background()
	sink := fakehost.NewSink()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.Wait()

	sink.SignalEncrypted()
	if !errors.Is(fatal, drm.ErrNoModuleAvailable) {
		t.Fatalf("expected fatal attach error, got %v", fatal)
	}
	if ctrl.BindingState() != drm.StateUnattached {
		t.Fatal("binder must not report attached after a failed host attach")
	}

	// Clearing the failure lets the next notification succeed.
	host.SetScript(keysystem.Widevine, fakehost.Script{})
	sink.SignalEncrypted()
	if ctrl.BindingState() != drm.StateAttached {
		t.Fatal("expected attachment once the host accepts the module")
	}
}

func TestEncryptedDuringInFlightNegotiation(t *testing.T) {
	host := fakehost.New()
	host.SetScript(keysystem.Widevine, fakehost.Script{Delay: 50 * time.Millisecond})

	var fatal error
	ctrl := newController(t, host, drm.WithFatalHandler(func(err error) { fatal = err }))

	ctx := context.Background()
	sink := fakehost.NewSink()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)

	// The encrypted notification races ahead of the slow negotiation; no
	// module exists yet, so this attempt must fail without attaching.
	sink.SignalEncrypted()
	if !errors.Is(fatal, drm.ErrNoModuleAvailable) {
		t.Fatalf("expected ErrNoModuleAvailable, got %v", fatal)
	}

	ctrl.Wait()
	if ctrl.BindingState() != drm.StateUnattached {
		t.Fatal("module arrival must not retroactively bind")
	}

	sink.SignalEncrypted()
	if ctrl.BindingState() != drm.StateAttached {
		t.Fatal("expected attachment on the notification after the module arrived")
	}
	if host.AttachCount() != 1 {
		t.Fatalf("expected exactly 1 attach call, got %d", host.AttachCount())
	}
}

func TestBindingStateStringValues(t *testing.T) {
	if drm.StateUnattached.String() != "unattached" || drm.StateAttached.String() != "attached" {
		t.Fatalf("unexpected state strings: %q / %q", drm.StateUnattached, drm.StateAttached)
	}
}
