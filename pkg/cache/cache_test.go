package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/sandrolain/goxq/pkg/cache"
	"github.com/sandrolain/goxq/pkg/types"
)

func TestCacheNew(t *testing.T) {
	c := cache.New[int](10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
	if got := cache.New[int](0).Capacity(); got != cache.DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", cache.DefaultCapacity, got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New[*types.Expression](4)
	expr := types.NewExpression(types.Int(1), "1")
	c.Set("1", expr)
	got, ok := c.Get("1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != expr {
		t.Fatal("expected same expression pointer")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New[string](3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, k)
	}
	// "b" becomes the least recently used entry.
	c.Get("a")
	c.Set("d", "d")

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted`)
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %q to survive", k)
		}
	}

	want := cache.Stats{Hits: 4, Misses: 1, Evictions: 1}
	if diff := pretty.Compare(c.Stats(), want); diff != "" {
		t.Errorf("stats (-got +want):\n%s", diff)
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New[int](4)
	c.Set("k", 1)
	c.Set("j", 2)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
	if got := c.Stats().Misses; got != 1 {
		t.Fatalf("Clear must keep counters, got %d misses", got)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New[*types.Expression](4)
	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return types.NewExpression(types.Str("x"), `"x"`), nil
	}

	first, hit, err := c.GetOrCompile("x", compile)
	if err != nil || hit {
		t.Fatalf("first lookup: hit=%v err=%v", hit, err)
	}
	second, hit, err := c.GetOrCompile("x", compile)
	if err != nil || !hit {
		t.Fatalf("second lookup: hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 compile call, got %d", calls)
	}
	if first != second {
		t.Fatal("expected same pointer from cache")
	}

	failing := func() (*types.Expression, error) {
		calls++
		return nil, errors.New("boom")
	}
	for i := 0; i < 2; i++ {
		if _, _, err := c.GetOrCompile("bad", failing); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 3 {
		t.Fatalf("errors must not be cached, got %d calls", calls)
	}
}

func TestCacheSharesRunningCompile(t *testing.T) {
	c := cache.New[int](4)
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	compile := func() (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	const waiters = 4
	var wg sync.WaitGroup
	results := make([]int, waiters+1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = c.GetOrCompile("q", compile)
	}()
	<-started
	for i := 1; i <= waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = c.GetOrCompile("q", compile)
		}(i)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 compile, got %d", got)
	}
	for i, r := range results {
		if r != 42 {
			t.Errorf("caller %d got %d, want 42", i, r)
		}
	}
	st := c.Stats()
	if st.Shared+st.Hits != waiters {
		t.Errorf("got %+v, want %d shared or hit lookups", st, waiters)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New[int](8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := string(rune('a' + (i+g)%12))
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 8 {
		t.Fatalf("cache exceeded capacity: %d", c.Len())
	}
}
