package cache

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)

	if err := c.Put("k", []byte("snapshot"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if !bytes.Equal(got, []byte("snapshot")) {
		t.Errorf("Get = %q, want %q", got, "snapshot")
	}
}

func TestGetMiss(t *testing.T) {
	c := openTestCache(t)
	if _, ok, err := c.Get("absent"); err != nil || ok {
		t.Errorf("Get(absent) = ok=%v err=%v, want miss", ok, err)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := openTestCache(t)

	if err := c.Put("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Advance the clock past expiry instead of sleeping.
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, ok, _ := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := openTestCache(t)

	if err := c.Put("k", []byte("old"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put("k", []byte("new"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, _ := c.Get("k")
	if string(got) != "new" {
		t.Errorf("Get = %q, want overwritten value", got)
	}
}

func TestDelete(t *testing.T) {
	c := openTestCache(t)

	c.Put("a", []byte("1"), time.Minute)
	c.Put("b", []byte("2"), time.Minute)

	if err := c.Delete("a", "b", "never-existed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get("a"); ok {
		t.Error("key a survived Delete")
	}
	if _, ok, _ := c.Get("b"); ok {
		t.Error("key b survived Delete")
	}
}

func TestGetOrFill(t *testing.T) {
	c := openTestCache(t)

	var fills atomic.Int32
	fill := func() ([]byte, error) {
		fills.Add(1)
		return []byte("derived"), nil
	}

	got, err := c.GetOrFill("k", time.Minute, fill)
	if err != nil {
		t.Fatalf("GetOrFill: %v", err)
	}
	if string(got) != "derived" {
		t.Errorf("GetOrFill = %q", got)
	}

	// Second call must be served from the cache.
	if _, err := c.GetOrFill("k", time.Minute, fill); err != nil {
		t.Fatalf("GetOrFill: %v", err)
	}
	if n := fills.Load(); n != 1 {
		t.Errorf("fill ran %d times, want 1", n)
	}
}

func TestGetOrFill_ErrorNotCached(t *testing.T) {
	c := openTestCache(t)

	boom := errors.New("boom")
	if _, err := c.GetOrFill("k", time.Minute, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrFill error = %v, want %v", err, boom)
	}

	// The failed fill must not leave an entry behind.
	if _, ok, _ := c.Get("k"); ok {
		t.Error("failed fill left a cache entry")
	}
}

func TestGetOrFill_Concurrent(t *testing.T) {
	c := openTestCache(t)

	var fills atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrFill("k", time.Minute, func() ([]byte, error) {
				fills.Add(1)
				time.Sleep(10 * time.Millisecond)
				return []byte("v"), nil
			})
		}()
	}
	wg.Wait()

	// singleflight collapses concurrent fills; racing goroutines that miss
	// the window refill at most once more.
	if n := fills.Load(); n > 2 {
		t.Errorf("fill ran %d times under concurrency, want collapsed", n)
	}
}
