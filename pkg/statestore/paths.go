package statestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirResolver supplies the writable base directory the state file lives
// under, usually the project root.
type DirResolver interface {
	BaseDir() (string, error)
}

// DirResolverFunc adapts a function to DirResolver.
type DirResolverFunc func() (string, error)

// BaseDir implements DirResolver.
func (f DirResolverFunc) BaseDir() (string, error) {
	return f()
}

// StaticDir resolves to a fixed directory.
func StaticDir(dir string) DirResolver {
	return DirResolverFunc(func() (string, error) {
		if dir == "" {
			return "", fmt.Errorf("base directory is empty")
		}
		return dir, nil
	})
}

// WorkingDir resolves to the process working directory.
func WorkingDir() DirResolver {
	return DirResolverFunc(os.Getwd)
}

// Layout places the state file under the base directory as
// <base>/<CacheDir>/<AppName>/<FileName>.
type Layout struct {
	CacheDir string
	AppName  string
	FileName string
}

const (
	DefaultCacheDir = ".cache"
	DefaultAppName  = "acpkeep"
	DefaultFileName = "SessionState.json"
)

// DefaultLayout returns the standard layout.
func DefaultLayout() Layout {
	return Layout{
		CacheDir: DefaultCacheDir,
		AppName:  DefaultAppName,
		FileName: DefaultFileName,
	}
}

// Validate checks that every segment is a single, non-traversing path element.
func (l Layout) Validate() error {
	segments := []struct {
		name  string
		value string
	}{
		{"cache dir", l.CacheDir},
		{"app name", l.AppName},
		{"file name", l.FileName},
	}

	for _, seg := range segments {
		if err := validateSegment(seg.value); err != nil {
			return fmt.Errorf("invalid %s: %w", seg.name, err)
		}
	}
	return nil
}

func validateSegment(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	if s == "." || s == ".." || strings.Contains(s, "..") {
		return fmt.Errorf("cannot contain '..'")
	}
	if strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("cannot contain path separators")
	}
	if strings.Contains(s, "\x00") {
		return fmt.Errorf("cannot contain null bytes")
	}
	return nil
}

// Resolve returns the state file path for the given base directory.
func (l Layout) Resolve(base string) string {
	return filepath.Join(base, l.CacheDir, l.AppName, l.FileName)
}
