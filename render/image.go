// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Common errors for image resources.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("render: invalid dimensions")

	// ErrUnsupportedFormat is returned for formats other than the float
	// formats the pipeline operates on.
	ErrUnsupportedFormat = errors.New("render: unsupported pixel format")

	// ErrDestroyed is returned when an Image is used after Destroy.
	ErrDestroyed = errors.New("render: image destroyed")

	// ErrSizeMismatch is returned when two images of different dimensions
	// or formats are combined.
	ErrSizeMismatch = errors.New("render: image size or format mismatch")
)

// imageGen numbers images in allocation order. Owners that swap buffers
// compare generations to detect stale references.
var imageGen atomic.Uint64

// Image is a 2D float pixel buffer with a WebGPU-style format and an
// explicit create/destroy lifetime.
//
// Pixels are stored row-major as float32 with Channels interleaved values
// per pixel, unclamped (high dynamic range). The supported formats are
// R32Float (1 channel), RG32Float (2 channels) and RGBA32Float
// (4 channels).
//
// Thread safety: Image is safe for concurrent reads. Writes and Destroy
// require external synchronization, consistent with the pipeline's
// single-threaded contract.
type Image struct {
	width      int
	height     int
	format     gputypes.TextureFormat
	channels   int
	pix        []float32
	generation uint64
	destroyed  bool
}

// FormatChannels returns the number of float channels per pixel for a
// format, or 0 if the format is not supported by this package.
func FormatChannels(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR32Float:
		return 1
	case gputypes.TextureFormatRG32Float:
		return 2
	case gputypes.TextureFormatRGBA32Float:
		return 4
	default:
		return 0
	}
}

// NewImage creates a zero-filled image resource with the given dimensions
// and float pixel format.
func NewImage(width, height int, format gputypes.TextureFormat) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	channels := FormatChannels(format)
	if channels == 0 {
		return nil, ErrUnsupportedFormat
	}
	return &Image{
		width:      width,
		height:     height,
		format:     format,
		channels:   channels,
		pix:        make([]float32, width*height*channels),
		generation: imageGen.Add(1),
	}, nil
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// Format returns the pixel format.
func (im *Image) Format() gputypes.TextureFormat { return im.format }

// Channels returns the number of float values per pixel.
func (im *Image) Channels() int { return im.channels }

// Generation returns the allocation generation of this image. Generations
// increase monotonically across all images, so a buffer swapped by its
// owner is always distinguishable from its predecessor.
func (im *Image) Generation() uint64 { return im.generation }

// Destroyed reports whether Destroy has been called.
func (im *Image) Destroyed() bool { return im.destroyed }

// Pix returns the raw pixel storage, row-major with interleaved channels.
// Returns nil after Destroy.
func (im *Image) Pix() []float32 { return im.pix }

// Index returns the offset of pixel (x, y) within Pix. The caller is
// responsible for bounds.
func (im *Image) Index(x, y int) int {
	return (y*im.width + x) * im.channels
}

// Fill sets every pixel to the given channel values. Values beyond the
// image's channel count are ignored; missing values are left zero.
func (im *Image) Fill(values ...float32) {
	if im.destroyed {
		return
	}
	n := len(values)
	if n > im.channels {
		n = im.channels
	}
	for i := 0; i < len(im.pix); i += im.channels {
		for c := 0; c < n; c++ {
			im.pix[i+c] = values[c]
		}
		for c := n; c < im.channels; c++ {
			im.pix[i+c] = 0
		}
	}
}

// CopyFrom copies the pixel contents of src into im. Both images must be
// live and have identical dimensions and format.
func (im *Image) CopyFrom(src *Image) error {
	if im.destroyed || src.destroyed {
		return ErrDestroyed
	}
	if im.width != src.width || im.height != src.height || im.format != src.format {
		return ErrSizeMismatch
	}
	copy(im.pix, src.pix)
	return nil
}

// Destroy releases the pixel storage. Destroy is idempotent; any use of
// the image afterwards fails with ErrDestroyed (or yields nil pixel data).
//
// The owner must ensure that no submitted work still references the image
// before destroying it. The pipeline's single synchronous queue makes
// acquire-new-then-release-old ordering sufficient.
func (im *Image) Destroy() {
	im.pix = nil
	im.destroyed = true
}
