package service

import "errors"

// Pipeline failure taxonomy. The HTTP layer maps each sentinel to a status
// code and a single-line message; causes joined onto them are logged, never
// returned to the client.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPayloadTooLarge     = errors.New("payload exceeds size limit")
	ErrFetchFailed         = errors.New("failed to fetch audio file from URL")
	ErrStorageWriteFailed  = errors.New("file upload failed")
	ErrDatabaseWriteFailed = errors.New("database insert failed")
	ErrNotFound            = errors.New("recording not found")
)
