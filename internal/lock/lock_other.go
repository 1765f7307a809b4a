//go:build !unix && !windows

package lock

import "os"

// Platforms without flock or LockFileEx get no cross-process exclusion; the
// engine's in-process guard still applies.
func tryLock(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
