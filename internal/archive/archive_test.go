package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCompressFileRoundtrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "webfs")
	payload := bytes.Repeat([]byte("filesync binary payload\n"), 512)
	if err := os.WriteFile(src, payload, 0o755); err != nil {
		t.Fatalf("write source: %v", err)
	}
	dst := filepath.Join(dir, "webfs-v1.0.0.zst")

	if err := CompressFile(src, dst); err != nil {
		t.Fatalf("compress: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch: %d bytes in, %d bytes out", len(payload), len(got))
	}
}

func TestArchiveDirRoundtrip(t *testing.T) {
	dir := t.TempDir()
	dist := filepath.Join(dir, "dist")
	files := map[string]string{
		"index.html":      "<html></html>",
		"assets/app.js":   "console.log(1)",
		"assets/app.css":  "body{}",
		"assets/sub/x.of": "x",
	}
	for name, body := range files {
		path := filepath.Join(dist, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	dst := filepath.Join(dir, "webui-v1.0.0.tar.zst")

	if err := ArchiveDir(dist, dst); err != nil {
		t.Fatalf("archive: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	seen := map[string]string{}
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read entry %s: %v", hdr.Name, err)
		}
		seen[hdr.Name] = string(body)
	}

	if len(seen) != len(files) {
		t.Fatalf("expected %d entries, got %d (%v)", len(files), len(seen), seen)
	}
	for name, body := range files {
		if seen[name] != body {
			t.Fatalf("entry %s: got %q want %q", name, seen[name], body)
		}
	}
}

func TestArchiveDirRejectsFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := ArchiveDir(src, filepath.Join(dir, "out.tar.zst")); err == nil {
		t.Fatalf("expected error archiving a plain file")
	}
}

func TestCopyFileByteIdentical(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "webfs-v1.2.3.zst")
	payload := []byte("compressed bytes")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	dst := filepath.Join(dir, "webfs-latest.zst")

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("copy not byte-identical")
	}

	// The alias must survive deletion of the versioned file.
	if err := os.Remove(src); err != nil {
		t.Fatalf("remove original: %v", err)
	}
	if _, err := os.ReadFile(dst); err != nil {
		t.Fatalf("copy did not survive original removal: %v", err)
	}
}
