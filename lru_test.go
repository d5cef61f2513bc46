package lru

import (
	"errors"
	"sync"
	"testing"

	"github.com/bpowers/lruchurn/simplelru"
)

func TestNew_InvalidSize(t *testing.T) {
	if _, err := New[int, int](0); !errors.Is(err, simplelru.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestCache(t *testing.T) {
	evictCounter := 0
	onEvicted := func(k int, v int) {
		if k != v {
			t.Fatalf("Evict values not equal (%v!=%v)", k, v)
		}
		evictCounter++
	}
	l, err := NewWithEvict(128, onEvicted)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	for i := 0; i < 256; i++ {
		l.Put(i, i)
	}
	if l.Len() != 128 {
		t.Fatalf("bad len: %v", l.Len())
	}
	if evictCounter != 128 {
		t.Fatalf("bad evict count: %v", evictCounter)
	}

	for i, k := range l.Keys() {
		if v, ok := l.Get(k); !ok || v != k || v != i+128 {
			t.Fatalf("bad key: %v", k)
		}
	}
	for i := 0; i < 128; i++ {
		if _, ok := l.Get(i); ok {
			t.Fatalf("should be evicted")
		}
	}

	stats := l.Stats()
	if stats.Hits != 128 || stats.Misses != 128 || stats.Evictions != 128 {
		t.Fatalf("bad stats: %+v", stats)
	}
	if stats.HitRatio() != 0.5 {
		t.Fatalf("bad hit ratio: %v", stats.HitRatio())
	}

	l.Purge()
	if l.Len() != 0 {
		t.Fatalf("bad len: %v", l.Len())
	}
	if _, ok := l.Get(200); ok {
		t.Fatalf("should contain nothing")
	}
}

// test that Put returns true/false if an eviction occurred
func TestCache_Put(t *testing.T) {
	l, err := New[int, int](1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if l.Put(1, 1) == true {
		t.Errorf("should not have an eviction")
	}
	if l.Put(2, 2) == false {
		t.Errorf("should have an eviction")
	}
	if l.Cap() != 1 {
		t.Errorf("bad cap: %v", l.Cap())
	}
}

// test that ContainsOrAdd doesn't update recent-ness
func TestCache_ContainsOrAdd(t *testing.T) {
	l, err := New[int, int](2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	l.Put(1, 1)
	l.Put(2, 2)
	contains, evict := l.ContainsOrAdd(1, 1)
	if !contains {
		t.Errorf("1 should be contained")
	}
	if evict {
		t.Errorf("nothing should be evicted here")
	}

	l.Put(3, 3)
	contains, evict = l.ContainsOrAdd(1, 1)
	if contains {
		t.Errorf("1 should not have been contained")
	}
	if !evict {
		t.Errorf("an eviction should have occurred")
	}
	if !l.Contains(1) {
		t.Errorf("now 1 should be contained")
	}
}

// test that PeekOrAdd doesn't update recent-ness
func TestCache_PeekOrAdd(t *testing.T) {
	l, err := New[int, int](2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	l.Put(1, 1)
	l.Put(2, 2)
	previous, contains, evict := l.PeekOrAdd(1, 1)
	if !contains {
		t.Errorf("1 should be contained")
	}
	if evict {
		t.Errorf("nothing should be evicted here")
	}
	if previous != 1 {
		t.Errorf("previous is not equal to 1")
	}

	l.Put(3, 3)
	contains = l.Contains(1)
	if contains {
		t.Errorf("1 should not have been contained")
	}
	previous, contains, evict = l.PeekOrAdd(1, 1)
	if contains {
		t.Errorf("1 should not have been contained")
	}
	if !evict {
		t.Errorf("an eviction should have occurred")
	}
	if previous != 0 {
		t.Errorf("previous should be the zero value")
	}
}

func TestCache_RemoveOldest(t *testing.T) {
	l, err := New[string, int](3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	l.Put("a", 1)
	l.Put("b", 2)
	l.Get("a")

	if k, _, ok := l.GetOldest(); !ok || k != "b" {
		t.Fatalf("bad oldest: %v %v", k, ok)
	}
	if k, v, ok := l.RemoveOldest(); !ok || k != "b" || v != 2 {
		t.Fatalf("bad removed oldest: %v %v %v", k, v, ok)
	}
	if !l.Remove("a") {
		t.Fatalf("a should be contained")
	}
	if l.Len() != 0 {
		t.Fatalf("bad len: %v", l.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	const size, workers, perWorker = 64, 8, 1000
	l, err := New[int, int](size)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := w*perWorker + i
				l.Put(k, k)
				l.Get(k)
				l.Peek(k - 1)
				if n := l.Len(); n > size {
					t.Errorf("len %d exceeds capacity", n)
				}
			}
		}(w)
	}
	wg.Wait()

	if l.Len() != size {
		t.Fatalf("bad len: %v", l.Len())
	}
	stats := l.Stats()
	if stats.Hits+stats.Misses != workers*perWorker {
		t.Fatalf("bad lookup count: %+v", stats)
	}
	if stats.Evictions != workers*perWorker-size {
		t.Fatalf("bad eviction count: %+v", stats)
	}
}

func BenchmarkCache_Parallel(b *testing.B) {
	l, err := New[int64, int64](128 * 1024)
	if err != nil {
		b.Fatalf("err: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			if i%2 == 0 {
				l.Put(i, i)
			} else {
				l.Get(i - 1)
			}
			i++
		}
	})
}
