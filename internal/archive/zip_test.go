package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestPacker() *Packer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPacker(logger)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		got[f.Name] = string(data)
	}
	return got
}

func TestPackFlatDirectory(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"1 - first.mp4":  "first payload",
		"2 - second.mp4": "second payload",
	}
	writeTree(t, src, files)
	dest := filepath.Join(t.TempDir(), "playlist.zip")

	if err := newTestPacker().Pack(src, dest); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	got := readArchive(t, dest)
	if len(got) != len(files) {
		t.Fatalf("archive has %d entries, want %d", len(got), len(files))
	}
	for name, content := range files {
		if got[name] != content {
			t.Errorf("entry %q = %q, want %q", name, got[name], content)
		}
	}
}

func TestPackPreservesRelativePaths(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"top.mp4":          "top",
		"nested/inner.mp3": "inner",
	})
	dest := filepath.Join(t.TempDir(), "mixed.zip")

	if err := newTestPacker().Pack(src, dest); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	got := readArchive(t, dest)
	var names []string
	for name := range got {
		names = append(names, name)
	}
	sort.Strings(names)

	want := []string{"nested/inner.mp3", "top.mp4"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("entries = %v, want %v", names, want)
		}
	}
	if got["nested/inner.mp3"] != "inner" {
		t.Errorf("nested entry content = %q", got["nested/inner.mp3"])
	}
}

func TestPackEmptyDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "empty.zip")

	if err := newTestPacker().Pack(t.TempDir(), dest); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if got := readArchive(t, dest); len(got) != 0 {
		t.Errorf("archive not empty: %v", got)
	}
}

func TestPackMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "broken.zip")
	err := newTestPacker().Pack(filepath.Join(t.TempDir(), "nope"), dest)
	if err == nil {
		t.Fatal("Pack() succeeded on missing source directory")
	}
}
