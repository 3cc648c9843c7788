package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func TestGetTempDirDefault(t *testing.T) {
	result := GetTempDir("")
	if result == "" {
		t.Fatal("Expected non-empty default directory")
	}
	if !isDirectoryUsable(result) {
		t.Errorf("Expected default directory %s to be usable", result)
	}
	t.Logf("default temp dir: %s", result)
}

func TestBuildCandidateListOrder(t *testing.T) {
	candidates := buildCandidateList()
	preferred := buildDiskPreferredCandidates()
	if len(candidates) < len(preferred)+1 {
		t.Fatalf("Expected at least %d candidates, got %v", len(preferred)+1, candidates)
	}
	for i, dir := range preferred {
		if candidates[i] != dir {
			t.Errorf("Expected disk backed candidate %s at position %d, got %s", dir, i, candidates[i])
		}
	}
	if candidates[len(preferred)] != os.TempDir() {
		t.Errorf("Expected %s after disk backed candidates, got %s", os.TempDir(), candidates[len(preferred)])
	}
}

func TestGetTempDirWithSpecificDir(t *testing.T) {
	testDir := t.TempDir()

	result := GetTempDir(testDir)
	if result != testDir {
		t.Errorf("Expected GetTempDir to return %s, got %s", testDir, result)
	}
}

func TestGetTempDirFallsBackForFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(testFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	result := GetTempDir(testFile)
	if result == testFile {
		t.Errorf("Expected GetTempDir to reject regular file %s", testFile)
	}
	if !filepath.IsAbs(result) {
		t.Errorf("Expected absolute path, got %s", result)
	}
}

func TestGetTempDirConsistency(t *testing.T) {
	result1 := GetTempDir("")
	result2 := GetTempDir("")

	if result1 != result2 {
		t.Errorf("Expected consistent results, got %s and %s", result1, result2)
	}
}

func TestIsDirectoryUsable(t *testing.T) {
	testDir := t.TempDir()

	if !isDirectoryUsable(testDir) {
		t.Errorf("Expected existing directory %s to be usable", testDir)
	}

	nonExistentDir := filepath.Join(testDir, "subdir")
	if !isDirectoryUsable(nonExistentDir) {
		t.Errorf("Expected creatable directory %s to be usable", nonExistentDir)
	}

	testFile := filepath.Join(testDir, "testfile")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if isDirectoryUsable(testFile) {
		t.Errorf("Expected file %s to not be usable as directory", testFile)
	}
}

func TestGetDiskPreferredCandidates(t *testing.T) {
	candidates := buildDiskPreferredCandidates()

	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		if !slices.Contains(candidates, "/var/tmp") {
			t.Errorf("Expected /var/tmp in disk-preferred candidates, got %v", candidates)
		}
	default:
		t.Logf("%s disk-preferred candidates: %v", runtime.GOOS, candidates)
	}
}

func TestGetAdditionalFallbacks(t *testing.T) {
	fallbacks := buildAdditionalFallbacks()
	if len(fallbacks) == 0 {
		t.Error("Expected some fallback directories")
	}
	for _, fallback := range fallbacks {
		if !filepath.IsAbs(fallback) {
			t.Errorf("Expected fallback %s to be absolute path", fallback)
		}
		if filepath.Base(fallback) != spillsortTempDirName {
			t.Errorf("Expected fallback %s to end in %s", fallback, spillsortTempDirName)
		}
	}
}
