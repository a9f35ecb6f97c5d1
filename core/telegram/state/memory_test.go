package state

import (
	"context"
	"sync"
	"testing"
)

type testSession struct {
	Locale string
	Step   int
}

func (m *MemoryStore[S]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	var store Store[testSession] = NewMemoryStore[testSession]()

	s, err := store.GetOrCreate(ctx, 1)
	if err != nil || s != (testSession{}) {
		t.Fatalf("new session = %+v, %v", s, err)
	}
	if err := store.Save(ctx, 1, testSession{Locale: "ru", Step: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s, _ = store.GetOrCreate(ctx, 1); s.Locale != "ru" || s.Step != 2 {
		t.Fatalf("loaded = %+v", s)
	}
	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s, _ = store.GetOrCreate(ctx, 1); s != (testSession{}) {
		t.Fatalf("after clear = %+v", s)
	}
}

func TestMemoryStoreIsolatesChats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[testSession]()
	_ = store.Save(ctx, 1, testSession{Locale: "ru"})
	_ = store.Save(ctx, 2, testSession{Locale: "ky"})
	if s, _ := store.GetOrCreate(ctx, 1); s.Locale != "ru" {
		t.Fatalf("chat 1 = %+v", s)
	}
	if store.size() != 2 {
		t.Fatalf("len = %d", store.size())
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[testSession]()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s, _ := store.GetOrCreate(ctx, id%4)
			s.Step++
			_ = store.Save(ctx, id%4, s)
		}(int64(i))
	}
	wg.Wait()
	if store.size() != 4 {
		t.Fatalf("len = %d", store.size())
	}
}
