package broker

import "github.com/pkg/errors"

// Sentinel errors returned by MetaStore mutators and readers. Every failure
// path returns one of these, wrapped with call-site context where useful, so
// callers can compare with errors.Is regardless of wrapping.
var (
	ErrInUse                = errors.New("in use")
	ErrNotInUse              = errors.New("not in use")
	ErrNoAvailableResource   = errors.New("no available resource")
	ErrResourceNotBalance    = errors.New("resource not balanced")
	ErrAlreadyExisted        = errors.New("already existed")
	ErrClusterNotFound       = errors.New("cluster not found")
	ErrHostNotFound          = errors.New("host not found")
	ErrInvalidNodeNum        = errors.New("invalid node number")
	ErrInvalidClusterName    = errors.New("invalid cluster name")
	ErrInvalidMigrationTask  = errors.New("invalid migration task")
	ErrInvalidProxyAddress   = errors.New("invalid proxy address")
	ErrMigrationTaskNotFound = errors.New("migration task not found")
	ErrOnlySupportOneCluster = errors.New("only one cluster is supported")
	ErrMigrationRunning      = errors.New("migration already running")
	ErrNotSupported          = errors.New("not supported")
)
