package update

import (
	"context"
)

// Release describes one upstream release: its tag and downloadable assets.
// A Release is produced fresh by every resolution and never persisted.
type Release struct {
	TagName string  // Version tag, e.g. "2023.06.15"
	Name    string  // Human-readable release name
	HTMLURL string  // Browser URL for the release page
	Assets  []Asset // Downloadable files, in feed order
}

// Asset identifies one downloadable file of a release.
type Asset struct {
	Name               string // Filename, e.g. "yt-dlp"
	BrowserDownloadURL string // Direct download URL
}

// ReleaseResolver returns the latest upstream release.
type ReleaseResolver interface {
	Latest(ctx context.Context) (*Release, error)
}

// Downloader fetches a URL into a file. A successful fetch replaces whatever
// was at dst; a failed one leaves dst as it was and creates no partial file.
type Downloader interface {
	Fetch(ctx context.Context, url, dst string) error
}

// Installer moves a verified file to its final path. It is the only
// component allowed to touch the live executable.
type Installer interface {
	Install(src, final string) error
}

// VersionStore persists the tag of the installed executable.
type VersionStore interface {
	Read() (string, error)
	Write(version string) error
}

// Comparator orders version identifiers. Compare returns a negative number
// when a < b, zero when equal and a positive number when a > b.
type Comparator interface {
	Compare(a, b string) int
}

// PermitFunc is consulted once a newer release is found, before anything is
// downloaded. Returning false ends the run with OutcomeDeclined.
type PermitFunc func(ctx context.Context, current string, release *Release) bool
