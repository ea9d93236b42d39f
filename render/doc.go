// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the device and image-resource layer for the
// diffract pipeline.
//
// The package has two responsibilities:
//
//   - Device access: [DeviceHandle] is how a host application hands its
//     GPU device to diffract. diffract RECEIVES the device, it never
//     creates one. CPU-only use passes [NullDeviceHandle].
//
//   - Image resources: [Image] is an explicitly managed 2D float buffer
//     with a WebGPU-style pixel format. Lifetime is create/destroy, never
//     implicit: every Image is released by exactly one owner calling
//     [Image.Destroy], and use after destroy is an error.
//
// Images carry a generation counter so that owners which reallocate
// buffers (for example on a quality tier change) can invalidate stale
// references cheaply.
package render
