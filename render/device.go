// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// This interface is the integration point between diffract and GPU
// frameworks like gogpu. The host application (e.g., gogpu.App) implements
// DeviceHandle and passes it to [github.com/gogpu/diffract.New], allowing
// the pipeline to share the host's GPU device.
//
// Key principle: diffract RECEIVES the device from the host, it does NOT
// create one. This enables:
//   - Shared GPU resources between diffract and the host renderer
//   - Zero device creation overhead in diffract
//   - Consistent resource management across the stack
//
// The pipeline submits all per-frame work in strict sequence against one
// queue, so the host's ordinary single-queue ordering guarantees are the
// only synchronization it relies on.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// diffract-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only operation where no GPU is available; the diffract
// pipeline's reference compute path runs entirely on the CPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero-value adapter information for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
