package migration

import "errors"

// ErrDuplicateVersion indicates two migrations share the same version.
var ErrDuplicateVersion = errors.New("duplicate migration version")

// ErrUnsorted indicates migrations are not in strictly increasing version order.
var ErrUnsorted = errors.New("migrations are not sorted by version")
