package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestMemoryStoreRecentBound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		err := store.Append(ctx, "chat:1",
			NewTurn(RoleUser, fmt.Sprintf("q%d", i)),
			NewTurn(RoleAssistant, fmt.Sprintf("a%d", i)),
		)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := store.Recent(ctx, "chat:1", 6)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 6 {
		t.Fatalf("len(recent) = %d, want 6", len(recent))
	}

	// Chronological order, ending with the newest exchange.
	want := []string{"a47", "q48", "a48", "q49", "a49"}
	if recent[0].Content != "q47" {
		t.Errorf("recent[0] = %q, want q47", recent[0].Content)
	}
	for i, w := range want {
		if recent[i+1].Content != w {
			t.Errorf("recent[%d] = %q, want %q", i+1, recent[i+1].Content, w)
		}
	}
}

func TestMemoryStoreEmptyKey(t *testing.T) {
	store := NewMemoryStore()
	recent, err := store.Recent(context.Background(), "never-seen", 6)
	if err != nil {
		t.Fatalf("Recent on empty key: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected empty history, got %d turns", len(recent))
	}
}

func TestMemoryStoreKeyIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Append(ctx, "whatsapp:1", NewTurn(RoleUser, "hello"))
	_ = store.Append(ctx, "telegram:1", NewTurn(RoleUser, "hallo"))

	a, _ := store.Recent(ctx, "whatsapp:1", 6)
	b, _ := store.Recent(ctx, "telegram:1", 6)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("key isolation broken: %d/%d", len(a), len(b))
	}
	if a[0].Content != "hello" || b[0].Content != "hallo" {
		t.Errorf("cross-key contamination: %q / %q", a[0].Content, b[0].Content)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		err := store.Append(ctx, "web:abc",
			NewTurn(RoleUser, fmt.Sprintf("q%d", i)),
			NewTurn(RoleAssistant, fmt.Sprintf("a%d", i)),
		)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := store.Recent(ctx, "web:abc", 6)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 6 {
		t.Fatalf("len(recent) = %d, want 6", len(recent))
	}
	if recent[0].Content != "q7" || recent[5].Content != "a9" {
		t.Errorf("window wrong: first=%q last=%q", recent[0].Content, recent[5].Content)
	}
	for i := 0; i+1 < len(recent); i++ {
		if recent[i].Role == recent[i+1].Role {
			t.Errorf("roles must alternate, got %q then %q", recent[i].Role, recent[i+1].Role)
		}
	}
}

func TestSQLiteStoreEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	recent, err := store.Recent(context.Background(), "nobody", 6)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected empty history, got %d turns", len(recent))
	}
}

func TestKeyedLockSerializes(t *testing.T) {
	locks := NewKeyedLock()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("same")
			counter++
			locks.Unlock("same")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}
