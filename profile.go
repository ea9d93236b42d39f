package diffract

// OpticalProfile describes the optical characteristics of the simulated
// eye. The Pipeline reads the profile lazily on every Render call, so the
// caller mutates fields directly and the next frame picks them up. There
// is no apply step and no change-notification wiring.
//
// The core tolerates any finite field value: Glare and Size are clamped
// internally to their physically sane [0,1] range before use. FNumber is
// the exception: a non-positive f-number has no physical meaning, so
// Render rejects it with [ErrInvalidOpticalParameter] instead of clamping.
type OpticalProfile struct {
	// FNumber is the ratio of the eye's focal length to its effective
	// aperture diameter. Larger values mean a smaller opening and a
	// broader diffraction spread. Must be positive.
	FNumber float64

	// Glare in [0,1] controls the strength of the broad halo contribution
	// of the pupil mask, which drives the glare and starburst component of
	// the diffraction spectrum.
	Glare float64

	// Size in [0,1] controls the relative pupil opening diameter and its
	// edge softness.
	Size float64
}

// DefaultProfile returns an optical profile with mid-range values: a
// human-eye-like f-number of 4, moderate glare and a half-open pupil.
func DefaultProfile() OpticalProfile {
	return OpticalProfile{
		FNumber: 4.0,
		Glare:   0.3,
		Size:    0.5,
	}
}

// Options holds global switches for the convolution stage. Like
// OpticalProfile, Options is read lazily on every Render call.
type Options struct {
	// ScaleCorrection decouples the sharpness of the base image from the
	// convolution working resolution. When true, only the diffraction
	// contribution is resampled through the working grid and the source
	// keeps its full sharpness; when false, the entire composited result
	// inherits the working resolution's blur. The flag never affects the
	// diffraction spectrum computation itself.
	ScaleCorrection bool
}

// DefaultOptions returns the default convolution options.
func DefaultOptions() Options {
	return Options{ScaleCorrection: true}
}
