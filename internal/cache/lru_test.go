package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("unexpected hit for missing key")
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCache_SatisfiesCache(t *testing.T) {
	var c Cache[int] = NewLRUCache[int](1, time.Minute)
	c.Set("a", 1)
	if v, existed := c.GetOrCreate("a", func() int { return 2 }); !existed || v != 1 {
		t.Fatalf("GetOrCreate(a) = %v, %v", v, existed)
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d", n)
	}
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clock.Now))
	c.Set("s", "x")

	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Second)
		if _, ok := c.Get("s"); !ok {
			t.Fatalf("entry expired despite activity at step %d", i)
		}
	}

	clock.Advance(61 * time.Second)
	if _, ok := c.Get("s"); ok {
		t.Fatalf("entry should expire after a full idle TTL")
	}
}

func TestLRUCache_CapacityEviction(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Minute, WithEvictCallback(func(key string, _ int) {
		evicted = append(evicted, key)
	}))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b becomes least recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	c := NewLRUCache[*int](10, time.Minute)
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	first, existed := c.GetOrCreate("k", create)
	if existed {
		t.Fatalf("first call reported existing entry")
	}
	second, existed := c.GetOrCreate("k", create)
	if !existed || first != second || calls != 1 {
		t.Fatalf("second call created a new value: existed=%v calls=%d", existed, calls)
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clock.Now))
	c.Set("old", 1)
	clock.Advance(30 * time.Second)
	c.Set("new", 2)
	clock.Advance(45 * time.Second)

	mgr := NewManager(nil)
	mgr.Register(c)
	if n := mgr.Sweep(); n != 1 {
		t.Fatalf("Sweep() removed %d, want 1", n)
	}
	if _, ok := c.Get("new"); !ok {
		t.Fatalf("live entry removed by sweep")
	}
}

func TestManager_StopIdempotent(t *testing.T) {
	mgr := NewManager(nil)
	mgr.StartCleanup(time.Millisecond)
	mgr.Stop()
	mgr.Stop()

	NewManager(nil).Stop()
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](100, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.GetOrCreate("shared", func() int { return n })
				c.Set("k", j)
				c.Get("k")
			}
		}(i)
	}
	wg.Wait()
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}
