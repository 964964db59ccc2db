// Package buildinfo carries version data injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/foodkeeper/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/dmitrijs2005/foodkeeper/internal/buildinfo.Date=2026-10-17 \
//	  -X github.com/dmitrijs2005/foodkeeper/internal/buildinfo.Commit=abc123"
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

var (
	Version = ""
	Date    = ""
	Commit  = ""
)

const na = "N/A"

func orNA(s string) string {
	if s == "" {
		return na
	}
	return s
}

// Summary returns the version, falling back to the module version recorded
// by the Go toolchain.
func Summary() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return na
}

// PrintBuildData writes the three build fields to w, one per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Summary())
	fmt.Fprintf(w, "Build date: %s\n", orNA(Date))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(Commit))
}
