package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// spillsortTempDirName is the sub-directory used when falling back to the
// user's home or working directory.
const spillsortTempDirName = ".spillsort"

var (
	// directory choice, computed once
	defaultDir       string
	dirDiscoveryOnce sync.Once
)

// GetTempDir returns the directory runs should be spilled into.
// If dir is non-empty and usable it is returned unchanged. Otherwise a
// directory is chosen once per process, starting with locations that are
// traditionally disk backed (/var/tmp) rather than tmpfs, since spilled runs
// are by definition larger than memory.
func GetTempDir(dir string) string {
	if dir != "" && isDirectoryUsable(dir) {
		return dir
	}
	dirDiscoveryOnce.Do(func() {
		defaultDir = findBestDirectory(buildCandidateList())
	})
	return defaultDir
}

// findBestDirectory returns the first usable candidate, or the OS temp dir.
func findBestDirectory(candidates []string) string {
	for _, candidate := range candidates {
		if isDirectoryUsable(candidate) {
			return candidate
		}
	}
	return os.TempDir()
}

// buildCandidateList returns temporary directory candidates in priority order.
func buildCandidateList() []string {
	candidates := buildDiskPreferredCandidates()
	candidates = append(candidates, os.TempDir())
	return append(candidates, buildAdditionalFallbacks()...)
}

// buildDiskPreferredCandidates returns directories that are more likely to be
// disk-backed than memory-backed.
func buildDiskPreferredCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/var/tmp", "/private/var/tmp"}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		return []string{"/var/tmp"}
	default:
		// windows temp dirs are disk backed already
		return nil
	}
}

// buildAdditionalFallbacks returns sub-directories of the home and working
// directories as a last resort.
func buildAdditionalFallbacks() []string {
	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, spillsortTempDirName))
	}
	if workDir, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(workDir, spillsortTempDirName))
	}
	return candidates
}

// isDirectoryUsable reports whether dir is an existing directory or does not
// exist yet and may be created. Writability is only discovered on first use.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
