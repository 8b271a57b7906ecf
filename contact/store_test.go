package contact

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func TestStoreInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := Submission{
		Name:    "  Ann  ",
		Email:   "ann@example.com",
		Subject: "",
		Message: "hello",
	}
	id, err := s.Insert(ctx, sub)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}

	id2, err := s.Insert(ctx, sub)
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if id2 <= id {
		t.Errorf("ids not increasing: %d then %d", id, id2)
	}

	// Stored exactly as submitted, created_at assigned by the database.
	var rec Record
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, email, subject, message, created_at FROM contacts WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Subject, &rec.Message, &rec.CreatedAt)
	if err != nil {
		t.Fatalf("query back: %v", err)
	}
	if rec.Name != sub.Name || rec.Email != sub.Email || rec.Subject != sub.Subject || rec.Message != sub.Message {
		t.Errorf("stored row %+v does not match submission %+v", rec, sub)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestStoreEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, Submission{Name: "a", Email: "a@b.io", Message: "m"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 (existing data preserved)", n)
	}
}

func TestStoreConcurrentInserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	ids := make(chan int64, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Insert(ctx, Submission{Name: "a", Email: "a@b.io", Message: "m"})
			if err != nil {
				errs <- err
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent Insert: %v", err)
	}
	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Errorf("got %d ids, want %d", len(seen), workers)
	}
}

func TestStoreInsertAfterClose(t *testing.T) {
	s := newTestStore(t)
	s.Close()
	if _, err := s.Insert(context.Background(), Submission{Name: "a", Email: "a@b.io", Message: "m"}); err == nil {
		t.Fatal("Insert on closed store succeeded")
	}
}
