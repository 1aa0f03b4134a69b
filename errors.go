// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"errors"
	"fmt"
)

// Framework errors.
var (
	// ErrNoAdapter is returned when no GPU adapter matches the requested options.
	ErrNoAdapter = errors.New("gpgpu: no suitable GPU adapter")

	// ErrNoDevice is returned when the adapter refuses to create a device.
	ErrNoDevice = errors.New("gpgpu: failed to create GPU device")

	// ErrNoQueue is returned when a device has no usable queue.
	ErrNoQueue = errors.New("gpgpu: device has no queue")

	// ErrClosed is returned when using a framework after Close.
	ErrClosed = errors.New("gpgpu: framework is closed")

	// ErrUnsupportedDevice is returned by FromProvider when the provider's
	// device is not a *wgpu.Device.
	ErrUnsupportedDevice = errors.New("gpgpu: unsupported device type")
)

// Resource errors.
var (
	// ErrReleased is returned when operating on a released resource.
	ErrReleased = errors.New("gpgpu: resource has been released")

	// ErrNotPod is returned when a buffer element type holds pointers.
	ErrNotPod = errors.New("gpgpu: element type is not plain old data")

	// ErrEmptyBuffer is returned when creating a buffer with no elements.
	ErrEmptyBuffer = errors.New("gpgpu: buffer length must be positive")

	// ErrUniformTooLarge is wrapped by the SizeError returned when a uniform
	// buffer exceeds the device's uniform binding size limit.
	ErrUniformTooLarge = errors.New("gpgpu: uniform buffer too large")

	// ErrStorageTooLarge is wrapped by the SizeError returned when a storage
	// buffer exceeds the device's storage binding size limit.
	ErrStorageTooLarge = errors.New("gpgpu: storage buffer too large")

	// ErrBufferTooSmall is wrapped by the SizeError returned when source or
	// destination data does not fit.
	ErrBufferTooSmall = errors.New("gpgpu: buffer too small")

	// ErrInvalidDimensions is returned for images with zero width or height.
	ErrInvalidDimensions = errors.New("gpgpu: image dimensions must be positive")

	// ErrNotIntegerPixelNumber is returned when image data length is not a
	// whole number of pixels.
	ErrNotIntegerPixelNumber = errors.New("gpgpu: data length is not a whole number of pixels")

	// ErrNotIntegerRowNumber is returned when image data length is not a
	// whole number of rows.
	ErrNotIntegerRowNumber = errors.New("gpgpu: data length is not a whole number of rows")

	// ErrUnsupportedFormat is returned when converting between Go images
	// and a pixel format without an 8-bit RGBA layout.
	ErrUnsupportedFormat = errors.New("gpgpu: pixel format has no image.RGBA equivalent")
)

// Shader and kernel errors.
var (
	// ErrInvalidSPIRV is returned for SPIR-V blobs with a bad length or magic number.
	ErrInvalidSPIRV = errors.New("gpgpu: invalid SPIR-V binary")

	// ErrUnknownShader is returned by Framework.Shader for names not bundled
	// in the shaders package.
	ErrUnknownShader = errors.New("gpgpu: unknown bundled shader")

	// ErrNoShader is returned by NewKernel for a program without a shader.
	ErrNoShader = errors.New("gpgpu: program has no shader")

	// ErrEntryPointNotFound is returned when the program's entry point is not
	// a compute entry point of the shader.
	ErrEntryPointNotFound = errors.New("gpgpu: compute entry point not found")

	// ErrDuplicateBinding is wrapped by the BindingError recorded when a
	// binding number is used twice in one descriptor set.
	ErrDuplicateBinding = errors.New("gpgpu: duplicate binding")

	// ErrBindingMismatch is wrapped by the BindingError returned when a
	// descriptor set does not match the shader's declared bindings.
	ErrBindingMismatch = errors.New("gpgpu: binding does not match shader")

	// ErrTooManySets is returned when a program has more descriptor sets
	// than the device supports.
	ErrTooManySets = errors.New("gpgpu: too many descriptor sets")

	// ErrZeroWorkgroups is returned when a dispatch dimension is zero.
	ErrZeroWorkgroups = errors.New("gpgpu: workgroup count must be positive")

	// ErrWorkgroupLimit is returned when a dispatch dimension exceeds
	// MaxComputeWorkgroupsPerDimension.
	ErrWorkgroupLimit = errors.New("gpgpu: workgroup count exceeds device limit")
)

// SizeError reports a size constraint violation in bytes.
type SizeError struct {
	Kind     error  // sentinel describing the violation
	Op       string // operation that failed
	Required uint64 // bytes required (or requested)
	Current  uint64 // bytes available (or allowed)
}

func (e *SizeError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUniformTooLarge), errors.Is(e.Kind, ErrStorageTooLarge):
		return fmt.Sprintf("%s: cannot create buffer of %d bytes (max. %d bytes)", e.Op, e.Required, e.Current)
	default:
		return fmt.Sprintf("%s: %v (required %d bytes, current %d bytes)", e.Op, e.Kind, e.Required, e.Current)
	}
}

func (e *SizeError) Unwrap() error { return e.Kind }

// BindingError reports a problem with a single @group/@binding slot.
type BindingError struct {
	Kind    error // ErrDuplicateBinding or ErrBindingMismatch
	Group   uint32
	Binding uint32
	Reason  string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%v: @group(%d) @binding(%d): %s", e.Kind, e.Group, e.Binding, e.Reason)
}

func (e *BindingError) Unwrap() error { return e.Kind }
