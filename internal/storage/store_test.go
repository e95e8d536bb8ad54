package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if _, err := s.Get(ctx, "account:a@b.c"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrKeyNotFound", err)
	}
	if err := s.Set(ctx, "account:a@b.c", []byte(`{"credits":100}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, "account:a@b.c")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `{"credits":100}` {
		t.Fatalf("Get() = %s", got)
	}
}

func TestMemoryStoreKeysPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, key := range []string{"account:b@x.c", "account:a@x.c", "history:a@x.c"} {
		if err := s.Set(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("Set(%s) error: %v", key, err)
		}
	}
	keys, err := s.Keys(ctx, "account:")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "account:a@x.c" || keys[1] != "account:b@x.c" {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestMemoryStoreWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore()
	events, err := s.Watch(ctx, "account:")
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if err := s.Set(ctx, "history:a@x.c", []byte("{}")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := s.Set(ctx, "account:a@x.c", []byte("{}")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Key != "account:a@x.c" {
			t.Fatalf("event key = %q, want account:a@x.c", ev.Key)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event within deadline")
	}
}

func TestMemoryStoreWatchCancelDuringSet(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := s.Watch(ctx, "account:")
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					if err := s.Set(context.Background(), "account:a@x.c", []byte("{}")); err != nil {
						t.Errorf("Set() error: %v", err)
						return
					}
				}
			}()
		}
		cancel()
		for range events {
			// drain until the watcher goroutine closes the channel
		}
		wg.Wait()
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	key := "account:user@example.com"
	if err := s.Set(ctx, key, []byte(`{"is_premium":true}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `{"is_premium":true}` {
		t.Fatalf("Get() = %s", got)
	}
	keys, err := s.Keys(ctx, "account:")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileStoreOverwriteIsAtomicRename(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("Get() = %s, want two", got)
	}
	// Temp files must not leak into the key space.
	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("Keys() = %v, want exactly one key", keys)
	}
}

func TestFileStoreWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	events, err := s.Watch(ctx, "account:")
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if err := s.Set(ctx, "account:w@x.c", []byte("{}")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Key != "account:w@x.c" {
			t.Fatalf("event key = %q", ev.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no filesystem event within deadline")
	}
}
