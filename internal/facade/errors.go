package facade

import (
	"net/http"

	stderrors "errors"

	"github.com/dreamware/membroker/internal/broker"
)

// statusForError maps a broker sentinel error to the HTTP status the route
// table reports it as. Unrecognized errors (which should never originate
// from the broker package) map to 500.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, broker.ErrInUse), stderrors.Is(err, broker.ErrMigrationRunning):
		return http.StatusConflict
	case stderrors.Is(err, broker.ErrClusterNotFound),
		stderrors.Is(err, broker.ErrHostNotFound),
		stderrors.Is(err, broker.ErrMigrationTaskNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, broker.ErrInvalidNodeNum),
		stderrors.Is(err, broker.ErrInvalidClusterName),
		stderrors.Is(err, broker.ErrInvalidMigrationTask),
		stderrors.Is(err, broker.ErrInvalidProxyAddress):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, broker.ErrNoAvailableResource),
		stderrors.Is(err, broker.ErrResourceNotBalance):
		return http.StatusServiceUnavailable
	case stderrors.Is(err, broker.ErrAlreadyExisted), stderrors.Is(err, broker.ErrOnlySupportOneCluster):
		return http.StatusConflict
	case stderrors.Is(err, broker.ErrNotInUse):
		return http.StatusOK
	case stderrors.Is(err, broker.ErrNotSupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
