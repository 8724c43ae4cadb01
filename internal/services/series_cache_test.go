package services

import (
	"testing"
	"time"
)

func TestSnapshotCache_GetMiss(t *testing.T) {
	cache := NewSnapshotCache()
	if got := cache.Get(1); got != nil {
		t.Errorf("Get on empty cache = %v, expected nil", got)
	}
}

func TestSnapshotCache_PutGet(t *testing.T) {
	cache := NewSnapshotCache()
	snap := &MetricSnapshot{MetricID: 1, Name: "Enrollment"}

	cache.Put(1, snap)

	got := cache.Get(1)
	if got == nil {
		t.Fatal("Get after Put returned nil")
	}
	if got.Name != "Enrollment" {
		t.Errorf("Name = %q, expected %q", got.Name, "Enrollment")
	}
}

func TestSnapshotCache_ExpiryIsLazy(t *testing.T) {
	cache := NewSnapshotCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Put(1, &MetricSnapshot{MetricID: 1})

	// Still fresh just inside the TTL.
	now = now.Add(snapshotTTL - time.Second)
	if cache.Get(1) == nil {
		t.Fatal("entry expired before its TTL")
	}

	// Expired entries are dropped on read.
	now = now.Add(2 * time.Second)
	if cache.Get(1) != nil {
		t.Error("entry should have expired")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, expected 0 after lazy removal", cache.Len())
	}
}

func TestSnapshotCache_PutResetsTTL(t *testing.T) {
	cache := NewSnapshotCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Put(1, &MetricSnapshot{MetricID: 1})
	now = now.Add(snapshotTTL - time.Second)
	cache.Put(1, &MetricSnapshot{MetricID: 1})

	now = now.Add(2 * time.Second)
	if cache.Get(1) == nil {
		t.Error("re-Put should have reset the TTL")
	}
}

func TestSnapshotCache_Invalidate(t *testing.T) {
	cache := NewSnapshotCache()
	cache.Put(1, &MetricSnapshot{MetricID: 1})
	cache.Put(2, &MetricSnapshot{MetricID: 2})

	cache.Invalidate(1)

	if cache.Get(1) != nil {
		t.Error("invalidated entry should be gone")
	}
	if cache.Get(2) == nil {
		t.Error("other entries should survive Invalidate")
	}
}

func TestSnapshotCache_Clear(t *testing.T) {
	cache := NewSnapshotCache()
	cache.Put(1, &MetricSnapshot{MetricID: 1})
	cache.Put(2, &MetricSnapshot{MetricID: 2})

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, expected 0", cache.Len())
	}
}

func TestSnapshotCache_Sweep(t *testing.T) {
	cache := NewSnapshotCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Put(1, &MetricSnapshot{MetricID: 1})
	now = now.Add(snapshotTTL + time.Second)
	cache.Put(2, &MetricSnapshot{MetricID: 2})

	dropped := cache.Sweep()

	if dropped != 1 {
		t.Errorf("Sweep dropped %d, expected 1", dropped)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, expected 1", cache.Len())
	}
	if cache.Get(2) == nil {
		t.Error("fresh entry should survive Sweep")
	}
}
