// Package types provides type-safe constants shared by the updater, the
// configuration layer and the command layer.
//
// Keeping the enumerations here means config validation, progress rendering
// and the engine all agree on the same closed set of values.
package types

import (
	"fmt"
	"strings"
)

// Stage identifies a step of an update run, as reported to progress sinks.
type Stage string

const (
	// StageChecking is emitted while comparing local and upstream versions.
	StageChecking Stage = "checking"
	// StageDownloading is emitted before the manifest and executable are fetched.
	StageDownloading Stage = "downloading"
	// StageVerifying is emitted before the executable digest is checked.
	StageVerifying Stage = "verifying"
	// StageInstalling is emitted before the verified file is moved into place.
	StageInstalling Stage = "installing"
	// StageDone is emitted once the new executable and version record are in place.
	StageDone Stage = "done"
	// StageAlreadyLatest is emitted when no newer release exists.
	StageAlreadyLatest Stage = "already_latest"
	// StageFailed is emitted once when a run terminates with an error.
	StageFailed Stage = "failed"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true if no further stage follows s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageAlreadyLatest || s == StageFailed
}

// Outcome is the terminal result of a successful update run.
type Outcome string

const (
	// OutcomeAlreadyLatest means the installed version is not older than upstream.
	OutcomeAlreadyLatest Outcome = "already_latest"
	// OutcomeUpdated means a new executable was verified and installed.
	OutcomeUpdated Outcome = "updated"
	// OutcomeDeclined means a newer release exists but installation was not permitted.
	OutcomeDeclined Outcome = "declined"
	// OutcomeAvailable means a newer release exists; reported by check-only runs.
	OutcomeAvailable Outcome = "available"
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	return string(o)
}

// Changed returns true if the run replaced the installed executable.
func (o Outcome) Changed() bool {
	return o == OutcomeUpdated
}

// CompareMode selects how version identifiers are ordered.
type CompareMode string

const (
	// CompareLexical compares tags as opaque strings.
	CompareLexical CompareMode = "lexical"
	// CompareSemver compares tags as loose semantic versions (dotted numeric).
	CompareSemver CompareMode = "semver"
)

// AllCompareModes returns all valid compare modes.
func AllCompareModes() []CompareMode {
	return []CompareMode{CompareLexical, CompareSemver}
}

// Validate checks if the CompareMode is a valid value.
// Empty mode is valid and means lexical.
func (m CompareMode) Validate() error {
	switch m {
	case CompareLexical, CompareSemver, "":
		return nil
	default:
		return fmt.Errorf("invalid compare mode '%s' (must be lexical or semver)", m)
	}
}

// String returns the string representation of the CompareMode.
func (m CompareMode) String() string {
	return string(m)
}

// Default returns lexical if m is empty, otherwise m.
func (m CompareMode) Default() CompareMode {
	if m == "" {
		return CompareLexical
	}
	return m
}

// ParseCompareMode parses a string into a CompareMode.
func ParseCompareMode(s string) (CompareMode, error) {
	m := CompareMode(strings.ToLower(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}
