// Package version reports the mw build version.
package version

import "runtime/debug"

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/vanderheijden86/mindwork/pkg/version.Version=v0.2.0"
var Version = "v0.1.0-dev"

// String returns Version, or the module version recorded by the Go
// toolchain when Version was not set at link time and the binary was
// installed with go install.
func String() string {
	if Version != "v0.1.0-dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
