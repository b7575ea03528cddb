package reconcile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// NewNotFoundError reports an override target that is absent from the store.
func NewNotFoundError(id string) error {
	return httperror.NewHTTPErrorf(http.StatusNotFound, "record '%s' not found", id)
}

// IsNotFound reports whether err is a record-not-found error.
func IsNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// NewInvalidCandidateError rejects a candidate whose name is empty or blank.
func NewInvalidCandidateError() error {
	return httperror.NewHTTPError(http.StatusBadRequest, "candidate name must not be empty")
}

// IsInvalidCandidate reports whether err is an invalid-candidate error.
func IsInvalidCandidate(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusBadRequest
}

// NewDependencyMissingError rejects a batch containing a candidate that is
// not importable. The whole batch is refused; nothing was committed.
func NewDependencyMissingError(name string, status Status) error {
	return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity,
		"candidate '%s' is not importable (status: %s)", name, status)
}

// IsDependencyMissing reports whether err is a batch-rejection error.
func IsDependencyMissing(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusUnprocessableEntity
}
