package tracker

import "errors"

// ErrChecksumMismatch indicates the recorded checksum differs from the expected one.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// ErrTableCreation indicates the tracking table could not be created.
var ErrTableCreation = errors.New("creating tracking table")

// ErrInvalidTableName indicates the tracking table name is not a plain identifier.
var ErrInvalidTableName = errors.New("invalid tracking table name")

// ErrAlreadyApplied indicates a record for the version already exists.
var ErrAlreadyApplied = errors.New("migration already applied")
