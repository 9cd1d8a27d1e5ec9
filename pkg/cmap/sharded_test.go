package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("ShardCount() = %d, want %d", m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("a should be deleted")
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Fatal("first SetIfAbsent should store")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("second SetIfAbsent should not store")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("Get(k) = %q, want first", v)
	}
}

func TestUpdate(t *testing.T) {
	m := New[int]()
	m.Set("n", 1)

	if !m.Update("n", func(v int) int { return v + 10 }) {
		t.Fatal("Update on present key should report true")
	}
	if v, _ := m.Get("n"); v != 11 {
		t.Errorf("Get(n) = %d, want 11", v)
	}
	if m.Update("missing", func(v int) int { return v }) {
		t.Error("Update on missing key should report false")
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("x", 42)

	v, ok := m.Pop("x")
	if !ok || v != 42 {
		t.Errorf("Pop(x) = %d, %v; want 42, true", v, ok)
	}
	if _, ok := m.Pop("x"); ok {
		t.Error("second Pop should report false")
	}
}

func TestRangeAndKeys(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%02d", i), i)
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 49*50/2 {
		t.Errorf("sum = %d, want %d", sum, 49*50/2)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 5
	})
	if visited != 5 {
		t.Errorf("Range stopped after %d, want 5", visited)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 50 || keys[0] != "k00" || keys[49] != "k49" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestDeleteFunc(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	removed := m.DeleteFunc(func(_ string, v int) bool { return v%2 == 0 })
	if len(removed) != 5 {
		t.Errorf("removed %d, want 5", len(removed))
	}
	if m.Count() != 5 {
		t.Errorf("Count() = %d, want 5", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 800 {
		t.Errorf("Count() = %d, want 800", m.Count())
	}
}
