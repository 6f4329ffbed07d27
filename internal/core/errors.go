package core

import (
	"errors"
	"fmt"

	"github.com/git-pkgs/compare/client"
)

var (
	// ErrNotFound is returned when a package is not found.
	ErrNotFound = client.ErrNotFound

	// ErrFetchFailed is the single failure signal of a registry fetch.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrDuplicate is returned when adding a package that is already compared.
	ErrDuplicate = errors.New("package already added")

	// ErrInvalidName is returned for an empty package name.
	ErrInvalidName = errors.New("package name must not be empty")
)

// FetchError reports a failed fetch of one package. Whatever leg failed and
// why, it unwraps to ErrFetchFailed; the underlying cause is kept for logs.
type FetchError struct {
	Ecosystem string
	Name      string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed for %s", e.Ecosystem, e.Name)
}

func (e *FetchError) Unwrap() error {
	return ErrFetchFailed
}

// Cause returns the underlying error.
func (e *FetchError) Cause() error {
	return e.Err
}

// DuplicateError reports an add of a name already present.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("package %s already added", e.Name)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}
