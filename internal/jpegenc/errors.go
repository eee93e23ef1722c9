package jpegenc

import "errors"

var (
	// ErrConfig is returned when a session cannot be configured: bad
	// dimensions, quality out of range or an unknown color space.
	ErrConfig = errors.New("jpegenc: invalid configuration")

	// ErrState is returned when a session handle is used out of order or
	// after it has been consumed.
	ErrState = errors.New("jpegenc: session used in wrong state")

	// ErrScanlines is returned when scanline data does not match the
	// configured geometry.
	ErrScanlines = errors.New("jpegenc: scanline data does not match image geometry")

	// ErrScript is returned for an invalid progressive scan script.
	ErrScript = errors.New("jpegenc: invalid scan script")

	// ErrInternal reports a fault inside the encoder.
	ErrInternal = errors.New("jpegenc: internal encoder fault")
)
