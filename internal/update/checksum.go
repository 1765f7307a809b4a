package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultManifestName is the checksum manifest asset published with each release.
const DefaultManifestName = "SHA2-256SUMS"

// ExpectedDigest scans a sha256sum-style manifest for the line naming
// filename and returns that line's digest. The filename is matched as a
// suffix so "*yt-dlp", "./yt-dlp" and "dist/yt-dlp" all match "yt-dlp",
// but "not-yt-dlp" does not.
func ExpectedDigest(manifest, filename string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !matchesFilename(line, filename) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		return strings.ToLower(fields[0]), nil
	}
	if err := scanner.Err(); err != nil {
		return "", newError(KindParse, "read manifest", err)
	}
	return "", newError(KindManifestEntryMissing, "find digest",
		fmt.Errorf("no manifest entry for %s", filename))
}

// matchesFilename reports whether line ends with filename on a name boundary.
func matchesFilename(line, filename string) bool {
	if filename == "" || !strings.HasSuffix(line, filename) {
		return false
	}
	rest := line[:len(line)-len(filename)]
	if rest == "" {
		// A bare filename has no digest.
		return false
	}
	switch rest[len(rest)-1] {
	case ' ', '\t', '*', '/', '\\':
		return true
	}
	return false
}

// DigestOf streams the file at path through SHA-256 and returns the
// lowercase hex digest.
func DigestOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", newError(KindFilesystem, "hash file", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", newError(KindFilesystem, "hash file", fmt.Errorf("hashing file %s: %w", path, err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify hashes the file at path once and reports the digest it computed
// and whether it equals expected. A mismatch is not an error; only I/O
// failures return one.
func Verify(path, expected string) (string, bool, error) {
	got, err := DigestOf(path)
	if err != nil {
		return "", false, err
	}
	return got, got == expected, nil
}
