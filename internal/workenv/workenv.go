// Package workenv resolves the files a padcipher run works on and writes them
// safely.
package workenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Resolve joins a relative path onto base. Absolute paths and an empty base
// are returned unchanged.
func Resolve(base, path string) string {
	if path == "" || base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// GetConfigRoot returns the per-user configuration directory
func GetConfigRoot() string {
	// Check environment variable first
	if home := os.Getenv("PADCIPHER_HOME"); home != "" {
		return home
	}

	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "padcipher")
		}
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "padcipher")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "padcipher")
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "padcipher")
		}
	}

	return filepath.Join(os.TempDir(), "padcipher")
}

// DirectorySpec specifies a directory to create
type DirectorySpec struct {
	Path string
	Mode uint32
}

// CreateDirs creates each directory under base
func CreateDirs(base string, dirs []DirectorySpec) error {
	for _, dir := range dirs {
		dirPath := Resolve(base, dir.Path)
		mode := dir.Mode
		if mode == 0 {
			mode = 0o700
		}

		if err := os.MkdirAll(dirPath, os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}

	return nil
}

// EnsureParent creates the parent directory of path if needed.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return CreateDirs("", []DirectorySpec{{Path: dir}})
}

// WriteFileSync writes data to path and flushes it to disk before returning.
func WriteFileSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place, so readers see either the old or the new contents.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := EnsureParent(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := WriteFileSync(tmpPath, data, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
