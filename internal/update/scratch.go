package update

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// CleanScratch removes scratch directories left in dataDir by interrupted
// runs and returns their paths. Callers must make sure no run is in flight.
func CleanScratch(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindFilesystem, "list data dir", err)
	}

	stale := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return filepath.Join(dataDir, e.Name()), e.IsDir() && strings.HasPrefix(e.Name(), ScratchPrefix)
	})

	removed := make([]string, 0, len(stale))
	for _, dir := range stale {
		if err := os.RemoveAll(dir); err != nil {
			return removed, newError(KindFilesystem, "remove scratch dir", err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
