package update

import (
	"errors"
	"fmt"
)

// Kind classifies why an update run failed.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this package.
	KindUnknown Kind = iota
	// KindNetwork covers transport failures, timeouts and non-success HTTP statuses.
	KindNetwork
	// KindParse means the release feed response could not be understood.
	KindParse
	// KindAssetMissing means the release lacks the executable or the manifest.
	KindAssetMissing
	// KindManifestEntryMissing means no manifest line names the executable.
	KindManifestEntryMissing
	// KindIntegrityMismatch means the downloaded digest differs from the manifest.
	KindIntegrityMismatch
	// KindFilesystem covers mkdir, write, rename and chmod failures.
	KindFilesystem
)

// Sentinels for errors.Is. Every *Error unwraps to exactly one of these.
var (
	ErrNetwork              = errors.New("network error")
	ErrParse                = errors.New("parse error")
	ErrAssetMissing         = errors.New("asset missing")
	ErrManifestEntryMissing = errors.New("manifest entry missing")
	ErrIntegrityMismatch    = errors.New("integrity mismatch")
	ErrFilesystem           = errors.New("filesystem error")

	// ErrBusy is returned by Engine.Run when another run is in flight.
	ErrBusy = errors.New("update already in progress")
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindAssetMissing:
		return "asset_missing"
	case KindManifestEntryMissing:
		return "manifest_entry_missing"
	case KindIntegrityMismatch:
		return "integrity_mismatch"
	case KindFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindAssetMissing:
		return ErrAssetMissing
	case KindManifestEntryMissing:
		return ErrManifestEntryMissing
	case KindIntegrityMismatch:
		return ErrIntegrityMismatch
	case KindFilesystem:
		return ErrFilesystem
	default:
		return nil
	}
}

// Error is the single error type returned by the update components.
type Error struct {
	Kind Kind
	Op   string // what was being attempted, e.g. "fetch manifest"
	// Manifest is set on KindAssetMissing when the checksum manifest,
	// not the executable, is absent from the release.
	Manifest bool
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrIntegrityMismatch) {
		return KindIntegrityMismatch
	}
	return KindUnknown
}

// ChecksumError carries both digests of a failed verification.
// It wraps ErrIntegrityMismatch so callers can use errors.Is.
type ChecksumError struct {
	Filename string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrIntegrityMismatch.
func (e *ChecksumError) Unwrap() error { return ErrIntegrityMismatch }

// InstallStep names the Installer step that failed.
type InstallStep string

const (
	StepMkdir  InstallStep = "mkdir"
	StepRename InstallStep = "rename"
	StepChmod  InstallStep = "chmod"
)

// InstallError reports which install step failed. When Renamed is true the
// new executable is already at the final path, fully written but possibly
// not executable.
type InstallError struct {
	Step    InstallStep
	Path    string
	Renamed bool
	Err     error
}

func (e *InstallError) Error() string {
	if e.Renamed {
		return fmt.Sprintf("installed %s but %s failed: %v", e.Path, e.Step, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
