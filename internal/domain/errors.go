package domain

import "errors"

// Domain errors.
var (
	// ErrAlbumNotFound is returned when an album cannot be found.
	ErrAlbumNotFound = errors.New("album not found")

	// ErrNoTransferHandle is returned when a resource carries neither
	// a URL nor a local path.
	ErrNoTransferHandle = errors.New("resource has no transfer handle")

	// ErrExportInProgress is returned when starting a run while one
	// is already active.
	ErrExportInProgress = errors.New("export already in progress")

	// ErrDestinationDenied is returned when the destination root
	// cannot be created or written to.
	ErrDestinationDenied = errors.New("destination root not writable")

	// ErrTransferFailed is returned when a resource transfer fails.
	ErrTransferFailed = errors.New("resource transfer failed")

	// ErrTransferStalled is returned when a network-backed transfer
	// stops receiving data.
	ErrTransferStalled = errors.New("transfer stalled")

	// ErrRateLimited is returned when rate limited by a remote store.
	ErrRateLimited = errors.New("rate limited")

	// ErrResourceGone is returned when a remote resource is no longer
	// retrievable (expired or deleted on the remote store).
	ErrResourceGone = errors.New("resource no longer retrievable")
)

// ExportError wraps an error with asset context.
type ExportError struct {
	AssetID AssetID
	Op      string
	Err     error
}

func (e *ExportError) Error() string {
	if e.AssetID != "" {
		return e.Op + " [" + e.AssetID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(assetID AssetID, op string, err error) *ExportError {
	return &ExportError{
		AssetID: assetID,
		Op:      op,
		Err:     err,
	}
}
