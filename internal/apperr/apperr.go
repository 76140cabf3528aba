// Package apperr defines the sentinel errors shared across the startracker
// pipeline. Callers use errors.Is against these values; component packages
// wrap them with fmt.Errorf("...: %w", ...) to attach context.
package apperr

import "errors"

var (
	// ErrFrameMissing is returned when an operation needs a loaded frame
	// but none has been loaded (or it was released).
	ErrFrameMissing = errors.New("frame missing")

	// ErrNoSpots is returned when projection is requested for an empty spot
	// list. Extraction itself returns an empty list, not this error, when no
	// candidate passes the filter.
	ErrNoSpots = errors.New("no spots extracted")

	// ErrCalibrationIO is returned when a calibration file cannot be read
	// or does not parse into the expected ten fields.
	ErrCalibrationIO = errors.New("calibration I/O error")

	// ErrCatalogUnavailable is returned when a catalog back-end cannot be
	// opened, or a query against it fails.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrInsufficientInputs is returned when an identification method is
	// given fewer direction vectors than it structurally requires.
	ErrInsufficientInputs = errors.New("insufficient inputs")

	// ErrInvalidArgument is returned for caller-supplied parameters outside
	// their documented domain (negative tolerance, unknown method, etc).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumericDomain is returned when a computation would leave its
	// mathematical domain (zero focal length, a zero-norm or non-finite
	// direction vector).
	ErrNumericDomain = errors.New("numeric domain error")
)
