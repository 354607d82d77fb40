package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory holding the running binary, following
// symlinks. Falls back to the working directory so `go run` behaves.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		if wd, wdErr := os.Getwd(); wdErr == nil && strings.TrimSpace(wd) != "" {
			return wd
		}
		return "."
	}
	if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil && strings.TrimSpace(resolved) != "" {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// ResolveRuntimePath turns a configured directory into an absolute path.
// Relative paths are anchored at the executable directory so the upload and
// audio folders land next to the binary regardless of where it was started.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
		if target == "" {
			return ExecutableDir()
		}
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(ExecutableDir(), target))
}
