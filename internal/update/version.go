package update

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/adamancini/sidecar/internal/types"
)

const (
	// InitialVersion is reported when nothing has been installed yet. It
	// orders before any real tag under both comparators.
	InitialVersion = "0.0.0"

	// VersionFileName is the version record kept next to the executable.
	VersionFileName = ".sidecar-version"
)

// FileVersionStore keeps the installed tag in a single text file.
type FileVersionStore struct {
	path string
}

// NewFileVersionStore creates a store backed by dataDir/VersionFileName.
func NewFileVersionStore(dataDir string) *FileVersionStore {
	return &FileVersionStore{path: filepath.Join(dataDir, VersionFileName)}
}

// Path returns the location of the version record.
func (s *FileVersionStore) Path() string {
	return s.path
}

// Read returns the recorded version, or InitialVersion when there is no
// record yet. Absence is not an error.
func (s *FileVersionStore) Read() (string, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return InitialVersion, nil
	}
	if err != nil {
		return "", newError(KindFilesystem, "read version", err)
	}

	v := strings.TrimSpace(string(content))
	if v == "" {
		return InitialVersion, nil
	}
	return v, nil
}

// Write replaces the record with version. The new content is written to a
// temp file and renamed into place so a torn record is never observed.
func (s *FileVersionStore) Write(version string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return newError(KindFilesystem, "write version", err)
	}

	tmp, err := os.CreateTemp(dir, VersionFileName+".tmp-*")
	if err != nil {
		return newError(KindFilesystem, "write version", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(version); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, "write version", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, "write version", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return newError(KindFilesystem, "write version", err)
	}
	return nil
}

// LexicalComparator orders tags as opaque strings. It is correct for
// zero-padded date tags such as "2023.06.15" but not for "2023.9.1"
// against "2023.10.1".
type LexicalComparator struct{}

// Compare implements Comparator.
func (LexicalComparator) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// SemverComparator orders dotted numeric tags numerically, so
// "2023.9.1" < "2023.10.1". Tags that do not parse fall back to lexical
// ordering.
type SemverComparator struct{}

// Compare implements Comparator.
func (SemverComparator) Compare(a, b string) int {
	va, errA := semver.NewVersion(NormalizeVersion(a))
	vb, errB := semver.NewVersion(NormalizeVersion(b))
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// ComparatorFor returns the comparator for mode. Empty means lexical.
func ComparatorFor(mode types.CompareMode) (Comparator, error) {
	switch mode.Default() {
	case types.CompareLexical:
		return LexicalComparator{}, nil
	case types.CompareSemver:
		return SemverComparator{}, nil
	default:
		return nil, fmt.Errorf("unsupported compare mode: %s", mode)
	}
}

// IsNewer reports whether remote orders after local under c.
func IsNewer(c Comparator, local, remote string) bool {
	return c.Compare(local, remote) < 0
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}
