package builder

import "errors"

// Local errors are returned synchronously and leave the session untouched.
var (
	ErrInvalidConfig    = errors.New("builder: invalid layout config")
	ErrUnknownBlockType = errors.New("builder: unknown block type")
	ErrInvalidSpan      = errors.New("builder: invalid column span")
	ErrInvalidPosition  = errors.New("builder: invalid block position")
	ErrCellOccupied     = errors.New("builder: cell occupied")
	ErrBlockNotFound    = errors.New("builder: block not found")
	ErrNoActiveLayout   = errors.New("builder: no active layout")
	ErrInvalidContent   = errors.New("builder: invalid block content")
)

// ErrRemotePersistence wraps every failure reported by a Repository.
var ErrRemotePersistence = errors.New("builder: remote persistence failure")

// ErrRecordNotFound is returned by repositories for unknown or foreign ids.
var ErrRecordNotFound = errors.New("builder: record not found")

var (
	errMissingRepository = errors.New("builder: repository not configured")
	errMissingCatalog    = errors.New("builder: catalog not configured")
)
