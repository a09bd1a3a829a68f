package types

import "errors"

// Argument errors. These are returned before any backend call is made.
var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrMissingArg      = errors.New("missing argument")
	ErrCannotBeEmpty   = errors.New("cannot be empty")
	ErrEmptyConditions = errors.New("conditions cannot be empty")
	ErrUnknownHook     = errors.New("unknown hook")
)

// Lookup and result errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrCountMissing    = errors.New("count is missing from result")
	ErrMalformedResult = errors.New("malformed result")
	ErrNotConnected    = errors.New("collection has no connection")
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrInvalidTable    = errors.New("invalid table name")
)

// Column specification errors returned by the CREATE TABLE builder.
var (
	ErrBadColumn      = errors.New("bad column format")
	ErrBadIndex       = errors.New("bad index value")
	ErrBadNullable    = errors.New("bad nullable value")
	ErrMissingDefault = errors.New("missing default value")
)
