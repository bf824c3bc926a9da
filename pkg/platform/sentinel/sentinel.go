package sentinel

import "errors"

// ErrNotFound is the sentinel for an object or row that does not exist.
// Stores and storage clients return it (optionally wrapped) so services can
// translate the infrastructure fact into a domain error at the boundary.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var ErrNotFound = errors.New("not found")
