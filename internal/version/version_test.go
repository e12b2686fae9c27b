package version

import (
	"context"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"v1.2.3\n", "1.2.3"},
		{"1.2.3", "1.2.3"},
		{"v1.2.3-4-gdeadbee", "1.2.3.4.deadbee"},
		{"v1.2.3-m", "1.2.3.m"},
		{"  abc1234 ", "abc1234"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Fatalf("normalize %q: got %q want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveRequiresDir(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Resolve(ctx, ""); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

func TestResolveOutsideRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := Resolve(ctx, t.TempDir()); err == nil {
		t.Fatalf("expected error outside a git repository")
	}
}
