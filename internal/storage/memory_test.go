package storage

import (
	"context"
	"errors"
	"testing"

	"ibis/internal/model"
)

func TestMemoryStoreConformance(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveRun(context.Background(), model.OptimizationRun{ID: "r"})
	if !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestMemoryStoreCopiesRunVector(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	x := []float64{1, 2}
	if err := store.SaveRun(ctx, model.OptimizationRun{VersionedRecord: Versioned(), ID: "r", X: x}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	x[0] = 99
	run, _, _ := store.GetRun(ctx, "r")
	if run.X[0] != 1 {
		t.Fatalf("stored run aliases caller slice: %+v", run.X)
	}
}
