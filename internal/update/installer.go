package update

import (
	"os"
	"path/filepath"
)

// FileInstaller moves verified files into place with a single rename.
type FileInstaller struct {
	policy Policy
}

// NewFileInstaller creates an installer for the given platform policy.
func NewFileInstaller(policy Policy) *FileInstaller {
	return &FileInstaller{policy: policy}
}

// Install moves src to final.
//
// The move is one os.Rename, so a reader of final sees either the previous
// file or the new one. src must be on the same volume as final; there is no
// copy fallback. On platforms that need it the exec bit is set after the
// rename, and a chmod failure is reported with Renamed set.
func (i *FileInstaller) Install(src, final string) error {
	// 1. Ensure the parent directory exists
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return newError(KindFilesystem, "install", &InstallError{Step: StepMkdir, Path: dir, Err: err})
	}

	// 2. Replace with new binary (atomic rename)
	if err := os.Rename(src, final); err != nil {
		return newError(KindFilesystem, "install", &InstallError{Step: StepRename, Path: final, Err: err})
	}

	// 3. Set executable permissions
	if i.policy.NeedsExecBit {
		if err := os.Chmod(final, 0755); err != nil {
			return newError(KindFilesystem, "install",
				&InstallError{Step: StepChmod, Path: final, Renamed: true, Err: err})
		}
	}

	return nil
}
