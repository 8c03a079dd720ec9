package drm_test

import (
	"context"
	"testing"

	"keyflow/internal/drm"
	"keyflow/internal/fakehost"
	"keyflow/internal/keysystem"
)

func TestFullPlaybackScenario(t *testing.T) {
	host := fakehost.New()
	ctrl := newController(t, host)

	ctx := context.Background()
	sink := fakehost.NewSink()

	ctrl.MediaAttaching()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.LevelSwitched()
	ctrl.Wait()

	sink.SignalEncrypted()

	if host.AttachCount() != 1 {
		t.Fatalf("expected exactly 1 attach call, got %d", host.AttachCount())
	}
	if ctrl.BindingState() != drm.StateAttached {
		t.Fatalf("expected attached, got %v", ctrl.BindingState())
	}
	views := ctrl.Snapshot()
	if len(views) != 1 || !views[0].HasModule || !views[0].HasSession {
		t.Fatalf("unexpected store contents %+v", views)
	}
}

func TestDetachClearsStoreAndBinding(t *testing.T) {
	host := fakehost.New()
	ctrl := newController(t, host)

	ctx := context.Background()
	sink := fakehost.NewSink()
	ctrl.MediaAttached(ctx, sink)
	ctrl.ManifestParsed(ctx, testLevels)
	ctrl.Wait()
	sink.SignalEncrypted()

	if ctrl.BindingState() != drm.StateAttached {
		t.Fatal("precondition: expected attached state")
	}

	ctrl.Detach()
	if len(ctrl.Snapshot()) != 0 {
		t.Fatalf("expected empty store after detach, got %+v", ctrl.Snapshot())
	}
	if ctrl.BindingState() != drm.StateUnattached {
		t.Fatal("expected binding flag cleared after detach")
	}
}

func TestControllerUsesConfiguredKeySystem(t *testing.T) {
	custom := keysystem.ID("com.example.custom")
	catalog := keysystem.NewCatalog()
	catalog.Register(custom, func(_, video []string, _ keysystem.Options) []keysystem.Configuration {
		caps := make([]keysystem.Capability, 0, len(video))
		for _, codec := range video {
			caps = append(caps, keysystem.Capability{ContentType: keysystem.VideoContentType(codec)})
		}
		return []keysystem.Configuration{{VideoCapabilities: caps}}
	})

	host := fakehost.New()
	ctrl := drm.NewController(host, catalog, nil, drm.WithKeySystem(custom))

	ctrl.ManifestParsed(context.Background(), testLevels)
	ctrl.Wait()

	views := ctrl.Snapshot()
	if len(views) != 1 || views[0].KeySystem != custom {
		t.Fatalf("expected entry for %q, got %+v", custom, views)
	}
}

func TestCapabilityOptionsReachTheProbe(t *testing.T) {
	host := fakehost.New()
	ctrl := newController(t, host,
		drm.WithCapabilityOptions(keysystem.Options{VideoRobustness: "HW_SECURE_ALL"}))

	ctrl.ManifestParsed(context.Background(), testLevels)
	ctrl.Wait()

	probes := host.Probes()
	if len(probes) != 1 {
		t.Fatalf("expected 1 probe, got %d", len(probes))
	}
	caps := probes[0].Configs[0].VideoCapabilities
	if len(caps) == 0 || caps[0].Robustness != "HW_SECURE_ALL" {
		t.Fatalf("robustness option missing from probe: %+v", caps)
	}
}
