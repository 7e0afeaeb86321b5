package archive

import (
	"context"
	"path/filepath"
	"testing"

	"xpath2json/internal/extract"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

// TestAppendAndCount checks that appended runs are persisted and countable
// per configuration name.
func TestAppendAndCount(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	res := &extract.Result{
		ConfigName: "dividends",
		Data:       map[string]any{"title": "ok"},
		Errors:     []string{},
	}
	if err := st.Append(ctx, "pages/one.html", res); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := st.Append(ctx, "pages/two.html", res); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	other := &extract.Result{ConfigName: "earnings", Errors: []string{"rule \"x\": boom"}}
	if err := st.Append(ctx, "pages/three.html", other); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	n, err := st.Count(ctx, "dividends")
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count(dividends) = %d, want 2", n)
	}

	all, err := st.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if all != 3 {
		t.Fatalf("Count(all) = %d, want 3", all)
	}
}

// TestOpenIdempotent checks that reopening an existing database does not
// fail on the already-created table.
func TestOpenIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "runs.db")
	ctx := context.Background()

	st, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := st.Append(ctx, "a.html", &extract.Result{ConfigName: "c", Errors: []string{}}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	st.Close()

	st2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer st2.Close()

	n, err := st2.Count(ctx, "c")
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}
