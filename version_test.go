package vistex

import (
	"strings"
	"testing"
)

func TestEmbeddedVersion(t *testing.T) {
	if !IsSemver(Version()) {
		t.Fatalf("embedded version must be semver: got %q", Version())
	}
	if got, want := VersionTag(), "v"+Version(); got != want {
		t.Fatalf("version tag: got %q, want %q", got, want)
	}
}

func TestBanner(t *testing.T) {
	got := Banner("vistex")
	if !strings.HasPrefix(got, "vistex v"+Version()+" (go") {
		t.Fatalf("banner: got %q", got)
	}
}

func TestIsSemver(t *testing.T) {
	for _, tc := range []struct {
		version string
		want    bool
	}{
		{"0.1.0", true},
		{"1.2.3-alpha.1", true},
		{"2.0.0+build.7", true},
		{" 0.1.0\n", true},
		{"v1.2.3", false},
		{"1.2", false},
		{"01.2.3", false},
	} {
		if got := IsSemver(tc.version); got != tc.want {
			t.Fatalf("IsSemver(%q): got %v, want %v", tc.version, got, tc.want)
		}
	}
}
