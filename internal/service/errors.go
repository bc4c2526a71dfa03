// Package service implements the application use cases on top of the
// repository stores. Every operation on a protected resource receives the
// acting identity explicitly and checks the authz policy itself, so the
// rules hold no matter which transport calls in.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/game-catalog/internal/repository"
)

// ErrInvalidCredentials is the only failure Authenticate reports for a bad
// login. Unknown usernames and wrong passwords are not distinguished.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Not-found errors per entity. All of them wrap repository.ErrNotFound.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", repository.ErrNotFound)
	ErrProfileNotFound      = fmt.Errorf("profile %w", repository.ErrNotFound)
	ErrGameNotFound         = fmt.Errorf("game %w", repository.ErrNotFound)
	ErrTagNotFound          = fmt.Errorf("tag %w", repository.ErrNotFound)
	ErrLibraryEntryNotFound = fmt.Errorf("library entry %w", repository.ErrNotFound)
)

// notFound replaces a bare repository.ErrNotFound with the entity-specific
// value and leaves every other error untouched.
func notFound(err, as error) error {
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return as
	}
	return err
}
