package update

import (
	"fmt"
	"runtime"
	"strings"
)

// DefaultExecutableBase is the sidecar name without any platform suffix.
const DefaultExecutableBase = "yt-dlp"

// Policy captures the platform-dependent parts of installing the sidecar.
// It is selected once at startup and passed to the engine and installer.
type Policy struct {
	ExecutableName string // Asset name and installed filename, e.g. "yt-dlp.exe"
	NeedsExecBit   bool   // Whether the installed file must be chmod'ed executable
}

// PolicyFor returns the policy for goos with the given executable base name.
// Windows gets an ".exe" suffix and no exec bit; everything else keeps the
// bare name and needs the exec bit.
func PolicyFor(goos, base string) Policy {
	if base == "" {
		base = DefaultExecutableBase
	}
	if goos == "windows" {
		if !strings.HasSuffix(strings.ToLower(base), ".exe") {
			base += ".exe"
		}
		return Policy{ExecutableName: base, NeedsExecBit: false}
	}
	return Policy{ExecutableName: base, NeedsExecBit: true}
}

// CurrentPolicy returns the policy for the running platform.
func CurrentPolicy(base string) Policy {
	return PolicyFor(runtime.GOOS, base)
}

// Validate checks that the policy names a plain filename.
func (p Policy) Validate() error {
	if p.ExecutableName == "" {
		return fmt.Errorf("executable name is required")
	}
	if strings.ContainsAny(p.ExecutableName, `/\`) || p.ExecutableName == "." || p.ExecutableName == ".." {
		return fmt.Errorf("executable name must be a plain filename: %q", p.ExecutableName)
	}
	return nil
}
