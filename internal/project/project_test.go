package project

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLookupDefaultsToWebui(t *testing.T) {
	p, err := Lookup("")
	if err != nil {
		t.Fatalf("lookup empty name: %v", err)
	}
	if p.Name != "webui" {
		t.Fatalf("expected default project webui, got %s", p.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("nginx"); err == nil {
		t.Fatalf("expected error for unknown project")
	}
}

func TestPackageDirIsPrefixPlusName(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		got := p.PackageDir("/ntc/packages/filesync")
		want := filepath.Join("/ntc/packages/filesync", name)
		if got != want {
			t.Fatalf("package dir for %s: got %s want %s", name, got, want)
		}
	}
}

func TestArchiveNames(t *testing.T) {
	cases := []struct {
		project  string
		version  string
		host     string
		archive  string
		latest   string
	}{
		{"webui", "1.4.0", "media", "webui-media-v1.4.0.tar.zst", "webui-media-latest.tar.zst"},
		{"webui", "1.4.0", "", "webui-v1.4.0.tar.zst", "webui-latest.tar.zst"},
		{"webfs", "1.2.3", "", "webfs-v1.2.3.zst", "webfs-latest.zst"},
		// Host is ignored for projects that are not host-qualified.
		{"dufs", "0.9.1", "media", "dufs-v0.9.1.zst", "dufs-latest.zst"},
	}
	for _, tc := range cases {
		p, err := Lookup(tc.project)
		if err != nil {
			t.Fatalf("lookup %s: %v", tc.project, err)
		}
		if got := p.ArchiveName(tc.version, tc.host); got != tc.archive {
			t.Fatalf("%s archive name: got %s want %s", tc.project, got, tc.archive)
		}
		if got := p.LatestName(tc.host); got != tc.latest {
			t.Fatalf("%s latest name: got %s want %s", tc.project, got, tc.latest)
		}
	}
}

func TestRemoteKeysHostQualified(t *testing.T) {
	p, err := Lookup("webui")
	if err != nil {
		t.Fatalf("lookup webui: %v", err)
	}
	keys := p.RemoteKeys("packages", "2.0.1", "media")
	want := []string{
		"packages/webui/webui-media-v2.0.1.tar.zst",
		"packages/webui/webui-media-latest.tar.zst",
		"packages/webui/webui-v2.0.1.tar.zst",
		"packages/webui/webui-latest.tar.zst",
	}
	if len(keys) != 4 {
		t.Fatalf("expected exactly 4 remote keys, got %d", len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d: got %s want %s", i, keys[i], want[i])
		}
	}
}

func TestRemoteKeysSingle(t *testing.T) {
	p, err := Lookup("webfs")
	if err != nil {
		t.Fatalf("lookup webfs: %v", err)
	}
	keys := p.RemoteKeys("packages", "1.2.3", "")
	if len(keys) != 1 {
		t.Fatalf("expected exactly 1 remote key, got %d", len(keys))
	}
	if keys[0] != "packages/webfs/webfs-v1.2.3.zst" {
		t.Fatalf("unexpected key: %s", keys[0])
	}
}

func TestImageRef(t *testing.T) {
	p, err := Lookup("dufs")
	if err != nil {
		t.Fatalf("lookup dufs: %v", err)
	}
	ref := p.ImageRef("123456789.dkr.ecr.us-east-1.amazonaws.com", "", "v0.9.1")
	if ref != "123456789.dkr.ecr.us-east-1.amazonaws.com/filesync/dufs:v0.9.1" {
		t.Fatalf("unexpected image ref: %s", ref)
	}
	if local := p.ImageRef("", "", "latest"); local != "filesync/dufs:latest" {
		t.Fatalf("unexpected local ref: %s", local)
	}
	if strings.Contains(p.ImageRef("registry/", "", "latest"), "//") {
		t.Fatalf("registry trailing slash not trimmed")
	}
}
