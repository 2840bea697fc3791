package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestNewSharded(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	if c.Capacity() != 10*ShardCount {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), 10*ShardCount)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if d := NewSharded[string, int](0, StringHasher); d.Capacity() != DefaultCapacity*ShardCount {
		t.Errorf("default Capacity() = %d", d.Capacity())
	}
}

func TestGetSet(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	c.Set("key1", 42)

	if v, ok := c.Get("key1"); !ok || v != 42 {
		t.Errorf("Get(key1) = %d, %v; want 42, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) found a value")
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 || s.HitRate() != 0.5 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	calls := 0
	create := func(v int) func() int {
		return func() int {
			calls++
			return v
		}
	}
	if v := c.GetOrCreate("k", create(100)); v != 100 {
		t.Errorf("first GetOrCreate() = %d, want 100", v)
	}
	if v := c.GetOrCreate("k", create(200)); v != 100 {
		t.Errorf("second GetOrCreate() = %d, want cached 100", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestEviction(t *testing.T) {
	// A constant hasher puts every key in one shard.
	c := NewSharded[int, int](2, func(int) uint64 { return 0 })
	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1)
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Error("least recently used entry survived")
	}
	for _, k := range []int{1, 3} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %d evicted", k)
		}
	}
}

func TestPurge(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	for i := range 20 {
		c.Set(strconv.Itoa(i), i)
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := strconv.Itoa(i)
				if v := c.GetOrCreate(key, func() int { return i }); v != i {
					t.Errorf("goroutine %d: GetOrCreate(%s) = %d", g, key, v)
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() != 100 {
		t.Errorf("Len() = %d, want 100", c.Len())
	}
}
