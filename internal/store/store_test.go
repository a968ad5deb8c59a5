package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Versifine/ledge/internal/controller"
	"github.com/Versifine/ledge/internal/physics"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	want := controller.ControllerState{
		Position: physics.V(12.5, 3.25),
		Rotation: 15,
		Velocity: physics.V(-4, 9.5),
		Grounded: true,
	}
	if err := store.Save(ctx, "autosave", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, " autosave ")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, "slot", controller.ControllerState{Position: physics.V(1, 1), Grounded: true}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, "slot", controller.ControllerState{Position: physics.V(2, 5)}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := store.Load(ctx, "slot")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Position != physics.V(2, 5) || got.Grounded {
		t.Fatalf("state = %+v, want the second save", got)
	}
	slots, err := store.Slots(ctx)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
}

func TestLoadMissingSlot(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.Load(context.Background(), "nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("load error = %v, want %v", err, ErrNotFound)
	}
}

func TestSlotsNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	start := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store.now = fixedClock(start)
	ctx := context.Background()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := store.Save(ctx, name, controller.ControllerState{}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	slots, err := store.Slots(ctx)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	want := []string{"gamma", "beta", "alpha"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %+v, want %v", slots, want)
	}
	for i, name := range want {
		if slots[i].Name != name {
			t.Fatalf("slots[%d] = %q, want %q", i, slots[i].Name, name)
		}
	}
	if !slots[0].SavedAt.Equal(start.Add(3 * time.Second)) {
		t.Fatalf("saved_at = %v, want %v", slots[0].SavedAt, start.Add(3*time.Second))
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, "slot", controller.ControllerState{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "slot"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "slot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, ErrNotFound)
	}
	if _, err := store.Load(ctx, "slot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load after delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestRejectsBadInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Save(context.Background(), " ", controller.ControllerState{}); err == nil {
		t.Fatal("expected empty slot error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, "slot", controller.ControllerState{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("save with cancelled ctx = %v", err)
	}
	if _, err := store.Slots(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("slots with cancelled ctx = %v", err)
	}

	var nilStore *Store
	if err := nilStore.Save(context.Background(), "slot", controller.ControllerState{}); err == nil {
		t.Fatal("expected unconfigured storage error")
	}
	if err := nilStore.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestReopenKeepsSlots(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "saves.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(context.Background(), "keep", controller.ControllerState{Position: physics.V(7, 0)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Load(context.Background(), "keep")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Position != physics.V(7, 0) {
		t.Fatalf("position = %v, want (7, 0)", got.Position)
	}
}
