package drm_test

import (
	"context"
	"testing"

	"keyflow/internal/drm"
	"keyflow/internal/fakehost"
	"keyflow/internal/keysystem"
)

func grantAccess(t *testing.T, host *fakehost.Host, id keysystem.ID) drm.Access {
	t.Helper()
	access, err := host.RequestAccess(context.Background(), id, []keysystem.Configuration{{}})
	if err != nil {
		t.Fatalf("RequestAccess: %v", err)
	}
	return access
}

func TestStoreAppendAndSnapshot(t *testing.T) {
	host := fakehost.New()
	store := drm.NewStore()

	access := grantAccess(t, host, keysystem.Widevine)
	entry, err := store.Append(keysystem.Widevine, access)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.KeySystem() != keysystem.Widevine {
		t.Fatalf("unexpected key system %q", entry.KeySystem())
	}

	views := store.Snapshot()
	if len(views) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(views))
	}
	view := views[0]
	if !view.HasAccess || view.HasModule || view.HasSession {
		t.Fatalf("fresh entry has wrong shape: %+v", view)
	}
}

func TestStoreRejectsDuplicateKeySystem(t *testing.T) {
	host := fakehost.New()
	store := drm.NewStore()

	if _, err := store.Append(keysystem.Widevine, grantAccess(t, host, keysystem.Widevine)); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if _, err := store.Append(keysystem.Widevine, grantAccess(t, host, keysystem.Widevine)); err == nil {
		t.Fatal("expected duplicate append to fail")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry after duplicate rejection, got %d", store.Len())
	}
}

func TestStoreSetModuleOnlyOnce(t *testing.T) {
	host := fakehost.New()
	store := drm.NewStore()
	access := grantAccess(t, host, keysystem.Widevine)
	entry, err := store.Append(keysystem.Widevine, access)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	module, err := access.CreateModule(context.Background())
	if err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	if err := store.SetModule(entry, module); err != nil {
		t.Fatalf("SetModule: %v", err)
	}
	if err := store.SetModule(entry, module); err == nil {
		t.Fatal("expected second SetModule to fail")
	}
}

func TestStoreResetClearsEntriesAndBinding(t *testing.T) {
	host := fakehost.New()
	store := drm.NewStore()
	if _, err := store.Append(keysystem.Widevine, grantAccess(t, host, keysystem.Widevine)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	store.Reset()
	if store.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d entries", store.Len())
	}
	if store.Attached() {
		t.Fatal("expected binding flag cleared after reset")
	}
}
