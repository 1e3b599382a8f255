package fs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

var (
	ErrCreateDir = errors.New("failed to create parent directory")
	ErrWrite     = errors.New("failed to write file")
)

func Exists(filePath string) bool {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return false
	}

	return true
}

// WriteAtomic replaces the contents of filePath in a single rename so readers observe either the old
// or the new file, never a partial one. Missing parent directories are created.
func WriteAtomic(filePath string, data []byte, perm os.FileMode) error {
	if errMkdir := os.MkdirAll(filepath.Dir(filePath), 0o755); errMkdir != nil {
		return errors.Join(errMkdir, ErrCreateDir)
	}

	if errWrite := renameio.WriteFile(filePath, data, perm); errWrite != nil {
		return errors.Join(errWrite, ErrWrite)
	}

	return nil
}
