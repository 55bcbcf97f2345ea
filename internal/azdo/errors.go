package azdo

import (
	"errors"
	"fmt"
)

var (
	// ErrFolderNotFound is wrapped by FolderNotFoundError.
	ErrFolderNotFound = errors.New("release folder not found")
	// ErrAmbiguousFolder is wrapped by AmbiguousFolderError.
	ErrAmbiguousFolder = errors.New("ambiguous release folder")
	// ErrNoCredentials is returned when neither a personal access token nor an access token is set.
	ErrNoCredentials = errors.New("no credentials configured")
)

// APIError represents a non-success response from the release service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// FolderNotFoundError means the folder query matched no release folder.
type FolderNotFoundError struct {
	Folder string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("no release folder found for: %q", e.Folder)
}

func (e *FolderNotFoundError) Unwrap() error {
	return ErrFolderNotFound
}

// AmbiguousFolderError means the folder query matched more than one release folder.
type AmbiguousFolderError struct {
	Folder string
	Count  int
}

func (e *AmbiguousFolderError) Error() string {
	return fmt.Sprintf("ambiguous folder query: %q, %d matches found", e.Folder, e.Count)
}

func (e *AmbiguousFolderError) Unwrap() error {
	return ErrAmbiguousFolder
}
