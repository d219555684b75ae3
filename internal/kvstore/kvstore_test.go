package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	_ = s.Set(ctx, "a", "1")
	_ = s.Set(ctx, "b", "2")
	for key, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := s.Get(ctx, key)
		if err != nil || got != want {
			t.Errorf("Get(%q) = %q, %v; want %q", key, got, err, want)
		}
	}

	if err := s.Set(ctx, "a", "3"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "a"); got != "3" {
		t.Errorf("Get(a) after Set = %q", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) after Delete error = %v", err)
	}
}

func TestMemorySetWithTTLExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.SetWithTTL(ctx, "cart:s1", "{}", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.SetWithTTL(ctx, "forever", "x", 0); err != nil {
		t.Fatal(err)
	}
	if got, err := s.Get(ctx, "cart:s1"); err != nil || got != "{}" {
		t.Fatalf("Get before expiry = %q, %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := s.Get(ctx, "cart:s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after expiry error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "forever"); err != nil {
		t.Fatalf("key without ttl expired: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "a", "1")

	err := s.Update(ctx, []string{"a", "b"}, func(cur map[string]string) (map[string]string, error) {
		if _, ok := cur["b"]; ok {
			t.Errorf("absent key b present in %v", cur)
		}
		return map[string]string{"a": cur["a"] + "+", "b": "new"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "a"); got != "1+" {
		t.Errorf("a = %q, want 1+", got)
	}
	if got, _ := s.Get(ctx, "b"); got != "new" {
		t.Errorf("b = %q, want new", got)
	}

	boom := errors.New("boom")
	if err := s.Update(ctx, []string{"a"}, func(map[string]string) (map[string]string, error) {
		return map[string]string{"a": "lost"}, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	if got, _ := s.Get(ctx, "a"); got != "1+" {
		t.Errorf("failed update wrote a = %q", got)
	}
}

func TestMemoryUpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, []string{"n"}, func(cur map[string]string) (map[string]string, error) {
				return map[string]string{"n": cur["n"] + "x"}, nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "n")
	if len(got) != 50 {
		t.Fatalf("len(n) = %d, want 50 (lost updates)", len(got))
	}
}

func TestMemoryPurgesExpiredKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < purgeEvery-1; i++ {
		_ = s.SetWithTTL(ctx, fmt.Sprintf("cart:%d", i), "{}", time.Minute)
	}
	now = now.Add(2 * time.Minute)
	_ = s.SetWithTTL(ctx, "cart:last", "{}", time.Minute)

	s.mu.Lock()
	stored := len(s.data)
	s.mu.Unlock()
	if stored != 1 {
		t.Fatalf("stored entries = %d, want 1", stored)
	}
}
