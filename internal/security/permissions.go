package security

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// PermSecretFile is for files holding access tokens.
	// rw------- (0600): only the owner can read or write.
	PermSecretFile os.FileMode = 0600

	// PermSecretDir is for directories created to hold secret files.
	// rwx------ (0700): only the owner has access.
	PermSecretDir os.FileMode = 0700
)

// WriteSecretFile writes data to path readable only by the owner, creating parent
// directories as needed. Permissions are applied explicitly to bypass umask and to
// tighten files that already exist.
func WriteSecretFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), PermSecretDir); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, PermSecretFile)
	if err != nil {
		return fmt.Errorf("failed to create secure file: %w", err)
	}

	if err := os.Chmod(path, PermSecretFile); err != nil {
		file.Close()
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}

// IsWorldReadable checks if a file is readable by others.
func IsWorldReadable(perm os.FileMode) bool {
	return perm&0004 != 0
}

// IsGroupReadable checks if a file is readable by its group.
func IsGroupReadable(perm os.FileMode) bool {
	return perm&0040 != 0
}

// IsWorldWritable checks if a file is writable by others.
func IsWorldWritable(perm os.FileMode) bool {
	return perm&0002 != 0
}

// CheckSecretFile reports an error when a file holding tokens can be read or
// written by anyone other than its owner.
func CheckSecretFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	perm := info.Mode().Perm()

	if IsWorldWritable(perm) {
		return fmt.Errorf("file %s is world-writable (%04o), run: chmod 600 %s", path, perm, path)
	}
	if IsWorldReadable(perm) || IsGroupReadable(perm) {
		return fmt.Errorf("file %s is readable by other users (%04o), run: chmod 600 %s", path, perm, path)
	}

	return nil
}
