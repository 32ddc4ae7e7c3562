// Package vistex is a visual editing engine for LaTeX source. The source
// stays the single truth: a session parses it, plans decorations over it
// and maps structural edits back onto it. Hosts draw the plan; the
// editor, render and lsp packages are the hosts shipped here.
package vistex

import (
	_ "embed"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

// Version is the release in SemVer form, without a leading "v".
func Version() string {
	return strings.TrimSpace(embeddedVersion)
}

// VersionTag is Version as a git tag.
func VersionTag() string {
	return "v" + Version()
}

// Banner is the line a vistex program prints for --version.
func Banner(program string) string {
	return fmt.Sprintf("%s %s (%s, %s/%s)", program, VersionTag(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// IsSemver reports whether v is a SemVer 2.0.0 version.
func IsSemver(v string) bool {
	return semverRE.MatchString(strings.TrimSpace(v))
}
