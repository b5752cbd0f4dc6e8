// Package policy implements row-level authorization: every entity access is
// checked against the calling user's id. A failed check is reported as
// not-found so callers cannot distinguish other accounts' data from data that
// does not exist.
package policy

import (
	"github.com/ahmedhesham6/invoice/internal/apperr"
)

// Ownable is implemented by models that belong to exactly one user.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether userID owns the resource.
func Owns(userID uint, resource Ownable) bool {
	return resource.GetUserID() == userID
}

// Authorize returns ErrNotFound unless userID owns the resource. The error is
// deliberately identical to a missing-row error.
func Authorize(userID uint, resource Ownable) error {
	if !Owns(userID, resource) {
		return apperr.New("resource not owned by caller").Mark(apperr.ErrNotFound)
	}
	return nil
}
