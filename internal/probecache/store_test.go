package probecache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"keyflow/internal/keysystem"
	"keyflow/internal/probecache"
)

func openStore(t *testing.T) *probecache.Store {
	t.Helper()
	store, err := probecache.Open(filepath.Join(t.TempDir(), "probes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleConfigs() []keysystem.Configuration {
	return []keysystem.Configuration{{
		VideoCapabilities: []keysystem.Capability{{ContentType: keysystem.VideoContentType("avc1.4d401f")}},
	}}
}

func TestRecordAndListOutcomes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	store.RecordProbe(ctx, keysystem.Widevine, sampleConfigs(), false, "no viable configuration")
	store.RecordProbe(ctx, keysystem.Widevine, sampleConfigs(), true, "")

	outcomes, err := store.Outcomes(ctx)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected upsert to keep 1 row, got %d", len(outcomes))
	}
	outcome := outcomes[0]
	if outcome.KeySystem != string(keysystem.Widevine) {
		t.Fatalf("unexpected key system %q", outcome.KeySystem)
	}
	if !outcome.Granted {
		t.Fatal("expected latest outcome to be granted")
	}
	if outcome.UpdatedAt.IsZero() {
		t.Fatal("expected a timestamp")
	}
}

func TestDistinctConfigsGetDistinctRows(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	other := []keysystem.Configuration{{
		VideoCapabilities: []keysystem.Capability{{ContentType: keysystem.VideoContentType("hvc1.1.6.L93.B0")}},
	}}
	store.RecordProbe(ctx, keysystem.Widevine, sampleConfigs(), true, "")
	store.RecordProbe(ctx, keysystem.Widevine, other, false, "hevc rejected")

	outcomes, err := store.Outcomes(ctx)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(outcomes))
	}
}

func TestClearRemovesOutcomes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	store.RecordProbe(ctx, keysystem.Widevine, sampleConfigs(), true, "")
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	outcomes, err := store.Outcomes(ctx)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected empty cache, got %d rows", len(outcomes))
	}
}

func TestConfigDigestStability(t *testing.T) {
	a, err := probecache.ConfigDigest(sampleConfigs())
	if err != nil {
		t.Fatalf("ConfigDigest: %v", err)
	}
	b, err := probecache.ConfigDigest(sampleConfigs())
	if err != nil {
		t.Fatalf("ConfigDigest: %v", err)
	}
	if a != b {
		t.Fatalf("digest not stable: %q vs %q", a, b)
	}

	reordered := []keysystem.Configuration{{
		VideoCapabilities: []keysystem.Capability{
			{ContentType: keysystem.VideoContentType("hvc1.1.6.L93.B0")},
			{ContentType: keysystem.VideoContentType("avc1.4d401f")},
		},
	}}
	c, err := probecache.ConfigDigest(reordered)
	if err != nil {
		t.Fatalf("ConfigDigest: %v", err)
	}
	if a == c {
		t.Fatal("different candidate lists must not collide")
	}
}

func TestSecondOpenIsRejectedWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probes.db")
	store, err := probecache.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := probecache.Open(path); !errors.Is(err, probecache.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestReopenAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probes.db")
	store, err := probecache.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.RecordProbe(context.Background(), keysystem.Widevine, sampleConfigs(), true, "")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := probecache.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	outcomes, err := reopened.Outcomes(context.Background())
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected persisted outcome, got %d rows", len(outcomes))
	}
}
