// Package diffract simulates physically based human-eye diffraction for
// HDR rendered images.
//
// # Overview
//
// diffract synthesizes a pupil aperture mask from a small set of optical
// parameters, derives its far-field diffraction spectrum (the point-spread
// function of the simulated eye) per visible wavelength, and convolves that
// spectrum against an arbitrary-size HDR image in the frequency domain.
// The result is the familiar glare, starburst and lens-scatter look of
// bright light sources seen through a human pupil.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/diffract"
//	    "github.com/gogpu/diffract/render"
//	)
//
//	profile := diffract.DefaultProfile()
//	pipe, err := diffract.New(render.NullDeviceHandle{}, diffract.QualityMedium, &profile, nil)
//	if err != nil {
//	    return err
//	}
//	defer pipe.Destroy()
//
//	source, _ := render.NewImage(1280, 720, gputypes.TextureFormatRGBA32Float)
//	target, _ := render.NewImage(1280, 720, gputypes.TextureFormatRGBA32Float)
//	// ... fill source with linear HDR pixels ...
//	err = pipe.Render(target, source, dt)
//
// # Pipeline
//
// Each Render call runs three stages in strict sequence:
//   - Compose: time-varying grayscale pupil mask from the optical profile
//   - Diffract: per-wavelength far-field diffraction spectrum of the mask
//   - Convolve: frequency-domain convolution of the spectrum against the
//     HDR source, composited onto the target
//
// # Quality Tiers
//
// Four discrete tiers trade accuracy for performance. The aperture mask
// resolution is 256/512/1024/2048 pixels square and the convolution working
// resolution is always exactly double that per axis. Changing tiers
// reallocates the internal aperture and spectrum buffers; any references
// obtained through Aperture or Spectrum are invalidated at that point.
//
// # Threading
//
// A Pipeline is single-threaded and non-reentrant: do not call Render and
// SetQuality concurrently. Individual stages parallelize internally across
// CPU cores.
package diffract

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
