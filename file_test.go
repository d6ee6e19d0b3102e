package solid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildFileOpenFile(t *testing.T) {
	dir := t.TempDir()
	report, err := scenario(t).BuildFile(dir, "test.solid")
	if err != nil {
		t.Fatalf("BuildFile: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "test.solid"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != report.TotalBytes() {
		t.Errorf("file is %d bytes, report says %d", info.Size(), report.TotalBytes())
	}

	a, err := OpenFile(dir, "test.solid", Config{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer a.Close()

	e, err := a.Get("doc2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(e.Contents) != "world!" {
		t.Errorf("doc2 = %q", e.Contents)
	}
}

// TestBuildFileTruncates verifies that rebuilding over a larger archive
// leaves no stale tail behind.
func TestBuildFileTruncates(t *testing.T) {
	dir := t.TempDir()
	big := New(Config{})
	big.Add("big", make([]byte, 4096), nil, nil)
	if _, err := big.BuildFile(dir, "a.solid"); err != nil {
		t.Fatalf("BuildFile big: %v", err)
	}

	report, err := scenario(t).BuildFile(dir, "a.solid")
	if err != nil {
		t.Fatalf("BuildFile: %v", err)
	}
	info, _ := os.Stat(filepath.Join(dir, "a.solid"))
	if info.Size() != report.TotalBytes() {
		t.Errorf("file is %d bytes, want %d", info.Size(), report.TotalBytes())
	}
}

func TestBuildFileSync(t *testing.T) {
	dir := t.TempDir()
	a := New(Config{SyncWrites: true})
	a.Add("doc", []byte("x"), nil, nil)
	if _, err := a.BuildFile(dir, "s.solid"); err != nil {
		t.Fatalf("BuildFile: %v", err)
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(t.TempDir(), "missing.solid", Config{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestOpenFileEscape(t *testing.T) {
	_, err := OpenFile(t.TempDir(), "../outside.solid", Config{})
	if err == nil {
		t.Error("OpenFile escaped its directory")
	}
}

func TestOpenFileMalformed(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad.solid"), []byte("junk"), 0644)
	_, err := OpenFile(dir, "bad.solid", Config{})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}

	// The failed open must not keep the shared lock: a rebuild proceeds.
	if _, err := scenario(t).BuildFile(dir, "bad.solid"); err != nil {
		t.Fatalf("BuildFile after failed open: %v", err)
	}
}

// TestCloseReleasesFile verifies that the archive can be rebuilt in
// place once the reader has closed it.
func TestCloseReleasesFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := scenario(t).BuildFile(dir, "r.solid"); err != nil {
		t.Fatalf("BuildFile: %v", err)
	}
	a, err := OpenFile(dir, "r.solid", Config{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := a.Get("doc1"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if _, err := New(Config{}).BuildFile(dir, "r.solid"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
}
