package htmlload

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestDecodeUTF8 checks that a plain UTF-8 document passes through unchanged.
func TestDecodeUTF8(t *testing.T) {
	t.Parallel()

	doc, err := Decode(bytes.NewReader([]byte(`<html><body><p>café</p></body></html>`)))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got := doc.Find("p").Text(); got != "café" {
		t.Fatalf("text = %q, want %q", got, "café")
	}
}

// TestDecodeWindows1252 checks that a meta-declared legacy encoding is
// converted before parsing. The 0xE9 byte is é in windows-1252 and invalid
// as UTF-8.
func TestDecodeWindows1252(t *testing.T) {
	t.Parallel()

	raw := []byte(`<html><head><meta charset="windows-1252"></head><body><p>caf` + "\xe9" + `</p></body></html>`)
	doc, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got := doc.Find("p").Text(); got != "café" {
		t.Fatalf("text = %q, want %q", got, "café")
	}
}

// TestParse checks the in-memory variant used by tests elsewhere.
func TestParse(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<html><body><em>inline</em></body></html>`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := doc.Find("em").Text(); got != "inline" {
		t.Fatalf("text = %q, want %q", got, "inline")
	}
}

// TestReadFile checks the file path variant end to end.
func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(`<html><body><h1>Saved</h1></body></html>`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Saved" {
		t.Fatalf("text = %q, want %q", got, "Saved")
	}
}

// TestReadFileMissing checks that a missing file surfaces an error with the
// path in it.
func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.html")); err == nil {
		t.Fatal("ReadFile() expected error for missing file")
	}
}
