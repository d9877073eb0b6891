package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/netobjects/netstore/model"
)

func TestMemory_PutGet_Success(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")

	if err := c.Put(ctx, id, model.NewSnapshot(map[string]any{"name": "x"})); err != nil {
		t.Fatalf("put: %v", err)
	}

	snap, ok, err := c.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if snap.Values["name"] != "x" {
		t.Errorf("expected name=x, got %v", snap.Values["name"])
	}
}

func TestMemory_Get_Miss(t *testing.T) {
	c := NewMemory(0)
	_, ok, err := c.Get(context.Background(), model.NewObjectID("widget", "missing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestMemory_Put_OverwritesExisting(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")

	_ = c.Put(ctx, id, model.NewSnapshot(map[string]any{"name": "x"}))
	_ = c.Put(ctx, id, model.NewSnapshot(map[string]any{"name": "y"}))

	snap, _, _ := c.Get(ctx, id)
	if snap.Values["name"] != "y" {
		t.Errorf("expected overwrite to y, got %v", snap.Values["name"])
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestMemory_Get_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")
	_ = c.Put(ctx, id, model.NewSnapshot(map[string]any{"name": "x"}))

	snap, _, _ := c.Get(ctx, id)
	snap.Values["name"] = "mutated"

	again, _, _ := c.Get(ctx, id)
	if again.Values["name"] != "x" {
		t.Error("caller mutation reached the cached snapshot")
	}
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")
	_ = c.Put(ctx, id, model.NewSnapshot(map[string]any{"name": "x"}))

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, id); ok {
		t.Error("expected miss after delete")
	}
	// Deleting again is not an error.
	if err := c.Delete(ctx, id); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemory_Eviction_LRU(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2)

	a := model.NewObjectID("widget", "a")
	b := model.NewObjectID("widget", "b")
	d := model.NewObjectID("widget", "d")

	_ = c.Put(ctx, a, model.NewSnapshot(map[string]any{"n": 1}))
	_ = c.Put(ctx, b, model.NewSnapshot(map[string]any{"n": 2}))
	// Touch a so b becomes least recently used.
	_, _, _ = c.Get(ctx, a)
	_ = c.Put(ctx, d, model.NewSnapshot(map[string]any{"n": 3}))

	if _, ok, _ := c.Get(ctx, b); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok, _ := c.Get(ctx, a); !ok {
		t.Error("expected a to survive")
	}
	if _, ok, _ := c.Get(ctx, d); !ok {
		t.Error("expected d to survive")
	}
}

func TestMemory_InvalidateEntity(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	_ = c.Put(ctx, model.NewObjectID("widget", "1"), model.NewSnapshot(map[string]any{"n": 1}))
	_ = c.Put(ctx, model.NewObjectID("widget", "2"), model.NewSnapshot(map[string]any{"n": 2}))
	_ = c.Put(ctx, model.NewObjectID("gadget", "1"), model.NewSnapshot(map[string]any{"n": 3}))

	if err := c.InvalidateEntity(ctx, "widget"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Errorf("expected 1 surviving entry, got %d", n)
	}
	if _, ok, _ := c.Get(ctx, model.NewObjectID("gadget", "1")); !ok {
		t.Error("expected gadget entry to survive")
	}
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	_ = c.Put(ctx, model.NewObjectID("widget", "1"), model.NewSnapshot(map[string]any{"n": 1}))

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("expected empty cache, got %d entries", n)
	}
}

func TestMemory_CorruptEntry_ReportsMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")
	_ = c.Put(ctx, id, model.Snapshot{})

	_, ok, err := c.Get(ctx, id)
	if ok {
		t.Error("corrupt entry should read as a miss")
	}
	if err == nil {
		t.Error("expected a corruption error")
	}
	// The damaged entry is dropped; the next read is a clean miss.
	_, ok, err = c.Get(ctx, id)
	if ok || err != nil {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemory_ConcurrentWriters_NoTornSnapshot(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	id := model.NewObjectID("widget", "42")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tag := fmt.Sprintf("w%d-%d", w, i)
				_ = c.Put(ctx, id, model.NewSnapshot(map[string]any{"a": tag, "b": tag}))
			}
		}(w)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			snap, ok, err := c.Get(ctx, id)
			if err != nil || !ok {
				continue
			}
			if snap.Values["a"] != snap.Values["b"] {
				t.Errorf("torn snapshot: a=%v b=%v", snap.Values["a"], snap.Values["b"])
				return
			}
		}
	}()
	wg.Wait()
	<-done
}
