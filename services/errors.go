package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on. They are wrapped in
// an *AppError before leaving the service layer, so errors.Is works through
// Unwrap.
var (
	// ErrDepthLimitExceeded: folder creation refused locally; no store call
	// was made.
	ErrDepthLimitExceeded = errors.New("folder depth limit exceeded")
	// ErrUploadTransferFailed: the resumable transfer and its single-shot
	// fallback both failed; the batch is aborted.
	ErrUploadTransferFailed = errors.New("upload transfer failed")
	// ErrNotDownloadable: the file has neither a cached URL nor a storage
	// path.
	ErrNotDownloadable = errors.New("file is not downloadable")
	// ErrPartialDeleteFailure: a descendant delete failed mid-recursion.
	// Completed steps are not rolled back; re-invoking the delete finishes
	// the job.
	ErrPartialDeleteFailure = errors.New("recursive delete did not finish")
	// ErrTreeCorrupted: a parent chain revisits a folder or exceeds the
	// depth bound. Traversals fail loudly instead of hanging.
	ErrTreeCorrupted = errors.New("attachment tree corrupted")
	// ErrIdentityRequired: no authenticated identity could be established
	// before a blob write.
	ErrIdentityRequired = errors.New("authenticated identity required")

	// errUploadCanceled marks a deliberate per-file cancel inside a batch;
	// the file is skipped and its siblings continue.
	errUploadCanceled = errors.New("upload canceled")
)

type AppError struct {
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, message string, data interface{}, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Data: data, Err: err}
}
