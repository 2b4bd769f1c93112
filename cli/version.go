package cli

import "runtime/debug"

// version can be set by the linker.
var version string

// Version returns the linker-set version, else the module version from
// the build information, else "unknown".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		// "(devel)" for binaries not built by "go install PACKAGE@VERSION".
		return info.Main.Version
	}
	return "unknown"
}
