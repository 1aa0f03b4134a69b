// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/gogpu/wgpu"
)

// Buffer usages.
const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	// CopySrc lets unaligned writes read back the words they partly cover.
	uniformUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
)

// gpuBuffer is the untyped part shared by storage and uniform buffers.
type gpuBuffer struct {
	fw       *Framework
	buf      *wgpu.Buffer
	len      int
	size     uint64 // len * sizeof(T); the allocation is rounded up to 4 bytes
	elemSize uint64
	released atomic.Bool
}

func newGpuBuffer[T any](fw *Framework, n int, uniform bool, op string) (*gpuBuffer, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	if err := checkPod[T](); err != nil {
		return nil, err
	}
	elem := sizeOf[T]()
	if n <= 0 || elem == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyBuffer)
	}

	size := uint64(n) * elem
	usage := storageUsage
	kind := "storage"
	if uniform {
		usage = uniformUsage
		kind = "uniform"
		if limit := fw.limits.MaxUniformBufferBindingSize; limit > 0 && size > limit {
			return nil, &SizeError{Kind: ErrUniformTooLarge, Op: op, Required: size, Current: limit}
		}
	} else if limit := fw.limits.MaxStorageBufferBindingSize; limit > 0 && size > limit {
		return nil, &SizeError{Kind: ErrStorageTooLarge, Op: op, Required: size, Current: limit}
	}

	label := fmt.Sprintf("%s<%s>[%d]", kind, reflect.TypeFor[T](), n)
	buf, err := fw.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fw.label(label),
		Size:  alignCopy(size),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	Logger().Debug("gpgpu: buffer created", "label", label, "bytes", size)
	return &gpuBuffer{fw: fw, buf: buf, len: n, size: size, elemSize: elem}, nil
}

// Len returns the number of elements.
func (b *gpuBuffer) Len() int { return b.len }

// IsEmpty reports whether the buffer has no elements.
func (b *gpuBuffer) IsEmpty() bool { return b.len == 0 }

// Size returns the size of the elements in bytes.
func (b *gpuBuffer) Size() uint64 { return b.size }

// Raw returns the wrapped wgpu buffer.
func (b *gpuBuffer) Raw() *wgpu.Buffer { return b.buf }

// Release frees the GPU memory. It is safe to call more than once.
func (b *gpuBuffer) Release() {
	if b.released.Swap(true) {
		return
	}
	b.buf.Release()
}

func (b *gpuBuffer) isReleased() bool { return b.released.Load() }

// writeBytes writes data at byte offset.
//
// Queue writes move whole 4-byte words. A write ending at the logical end
// is zero-padded into the allocation slack. Otherwise the words a write only
// partly covers are read back first, so the bytes around data keep their
// values; that read waits for pending GPU work on the buffer.
func (b *gpuBuffer) writeBytes(op string, offset uint64, data []byte) error {
	if b.isReleased() {
		return ErrReleased
	}
	if len(data) == 0 {
		return nil
	}
	end := offset + uint64(len(data))
	if end > b.size {
		return &SizeError{Kind: ErrBufferTooSmall, Op: op, Required: end, Current: b.size}
	}

	start, stop := alignDown(offset), alignCopy(end)
	if start == offset && (stop == end || end == b.size) {
		if stop != end {
			padded := make([]byte, stop-start)
			copy(padded, data)
			data = padded
		}
		return b.fw.writeBuffer(b.buf, offset, data)
	}

	words, err := b.readRange(start, stop)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	copy(words[offset-start:], data)
	return b.fw.writeBuffer(b.buf, start, words)
}

// readRange returns the bytes [start, stop) of the buffer. Both bounds must
// be 4-byte aligned.
func (b *gpuBuffer) readRange(start, stop uint64) ([]byte, error) {
	p, err := b.fw.startDownload("buffer-range", stop-start, func(enc *wgpu.CommandEncoder, staging *wgpu.Buffer) {
		enc.CopyBufferToBuffer(b.buf, start, staging, 0, stop-start)
	})
	if err != nil {
		return nil, err
	}
	return p.collect(context.Background())
}

// startRead copies the buffer to a staging buffer and starts mapping it.
func (b *gpuBuffer) startRead() (*pendingDownload, error) {
	if b.isReleased() {
		return nil, ErrReleased
	}
	return b.fw.startDownload("buffer", b.size, func(enc *wgpu.CommandEncoder, staging *wgpu.Buffer) {
		enc.CopyBufferToBuffer(b.buf, 0, staging, 0, alignCopy(b.size))
	})
}

// GpuBuffer is a storage buffer of n elements of T, read-only or read-write
// in shaders and readable from the host.
//
// T must be plain old data: fixed-size numbers, arrays and structs of them.
// Its Go layout must match the WGSL layout of the shader's buffer type.
type GpuBuffer[T any] struct {
	*gpuBuffer
}

// NewBuffer creates a zeroed storage buffer of n elements.
func NewBuffer[T any](fw *Framework, n int) (*GpuBuffer[T], error) {
	b, err := newGpuBuffer[T](fw, n, false, "gpgpu.NewBuffer")
	if err != nil {
		return nil, err
	}
	return &GpuBuffer[T]{gpuBuffer: b}, nil
}

// BufferFromSlice creates a storage buffer holding a copy of data.
func BufferFromSlice[T any](fw *Framework, data []T) (*GpuBuffer[T], error) {
	b, err := NewBuffer[T](fw, len(data))
	if err != nil {
		return nil, err
	}
	if err := b.Write(data); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Write copies data to the start of the buffer. data may be shorter than
// the buffer; elements past it keep their values.
func (b *GpuBuffer[T]) Write(data []T) error {
	return b.WriteAt(0, data)
}

// WriteAt copies data starting at element index. Elements smaller than 4
// bytes may start and end anywhere; the neighbouring elements are kept.
func (b *GpuBuffer[T]) WriteAt(index int, data []T) error {
	if index < 0 || index+len(data) > b.len {
		return &SizeError{
			Kind:     ErrBufferTooSmall,
			Op:       "gpgpu.GpuBuffer.Write",
			Required: uint64(max(index, 0)+len(data)) * b.elemSize,
			Current:  b.size,
		}
	}
	return b.writeBytes("gpgpu.GpuBuffer.Write", uint64(index)*b.elemSize, asBytes(data))
}

// Read blocks until the GPU finished pending work on the buffer and returns
// its contents.
func (b *GpuBuffer[T]) Read(ctx context.Context) ([]T, error) {
	p, err := b.startRead()
	if err != nil {
		return nil, err
	}
	data, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	return fromBytes[T](data, b.len), nil
}

// ReadInto reads the buffer into dst and returns the number of elements
// copied, the smaller of len(dst) and Len.
func (b *GpuBuffer[T]) ReadInto(ctx context.Context, dst []T) (int, error) {
	out, err := b.Read(ctx)
	if err != nil {
		return 0, err
	}
	return copy(dst, out), nil
}

// ReadAsync starts a readback and returns without waiting. The result
// resolves once the framework is polled.
func (b *GpuBuffer[T]) ReadAsync() (*Readback[[]T], error) {
	p, err := b.startRead()
	if err != nil {
		return nil, err
	}
	n := b.len
	return newReadback(p, func(data []byte) []T { return fromBytes[T](data, n) }), nil
}

// GpuUniformBuffer is a uniform buffer of n elements of T. Uniform buffers
// are read-only in shaders and write-only from the host.
type GpuUniformBuffer[T any] struct {
	*gpuBuffer
}

// NewUniformBuffer creates a zeroed uniform buffer of n elements. It fails
// with a SizeError wrapping ErrUniformTooLarge when the buffer exceeds the
// device's MaxUniformBufferBindingSize.
func NewUniformBuffer[T any](fw *Framework, n int) (*GpuUniformBuffer[T], error) {
	b, err := newGpuBuffer[T](fw, n, true, "gpgpu.NewUniformBuffer")
	if err != nil {
		return nil, err
	}
	return &GpuUniformBuffer[T]{gpuBuffer: b}, nil
}

// UniformBufferFromSlice creates a uniform buffer holding a copy of data.
func UniformBufferFromSlice[T any](fw *Framework, data []T) (*GpuUniformBuffer[T], error) {
	b, err := NewUniformBuffer[T](fw, len(data))
	if err != nil {
		return nil, err
	}
	if err := b.Write(data); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Write copies data to the start of the buffer.
func (b *GpuUniformBuffer[T]) Write(data []T) error {
	if len(data) > b.len {
		return &SizeError{
			Kind:     ErrBufferTooSmall,
			Op:       "gpgpu.GpuUniformBuffer.Write",
			Required: uint64(len(data)) * b.elemSize,
			Current:  b.size,
		}
	}
	return b.writeBytes("gpgpu.GpuUniformBuffer.Write", 0, asBytes(data))
}
