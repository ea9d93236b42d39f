package diffract

import "errors"

// Sentinel errors for the diffract package.
//
// Errors in the first group are contract violations: they indicate an
// integration bug in the caller and are never recovered internally.
// ErrInvalidOpticalParameter is the one caller-validatable condition:
// UI layers are expected to clamp f-number ranges, but the core rejects
// non-physical values rather than silently correcting them.
var (
	// ErrInvalidQuality is returned when a quality tier outside the closed
	// Low..Optimal enumeration is passed to New or SetQuality.
	ErrInvalidQuality = errors.New("diffract: invalid quality tier")

	// ErrPipelineDestroyed is returned when a Pipeline is used after Destroy.
	ErrPipelineDestroyed = errors.New("diffract: pipeline destroyed")

	// ErrInvalidTimeDelta is returned when Render is called with a negative
	// or non-finite frame time delta.
	ErrInvalidTimeDelta = errors.New("diffract: negative or non-finite time delta")

	// ErrInvalidOpticalParameter is returned when the optical profile's
	// f-number is zero, negative or non-finite. An aperture with a
	// non-positive f-number has no physical meaning.
	ErrInvalidOpticalParameter = errors.New("diffract: f-number must be positive and finite")

	// ErrNilImage is returned when a nil image is passed to a stage that
	// requires one.
	ErrNilImage = errors.New("diffract: nil image")

	// ErrSizeMismatch is returned when source and target dimensions differ,
	// or when a stage receives a buffer sized for a different quality tier.
	ErrSizeMismatch = errors.New("diffract: image size mismatch")

	// ErrInvalidFormat is returned when an image has the wrong pixel format
	// for the stage consuming it.
	ErrInvalidFormat = errors.New("diffract: invalid image format")
)
