// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"fmt"

	"github.com/gogpu/wgpu"
)

// StorageBuffer is implemented by *GpuBuffer[T].
type StorageBuffer interface {
	storageBuffer() *gpuBuffer
}

// UniformBuffer is implemented by *GpuUniformBuffer[T].
type UniformBuffer interface {
	uniformBuffer() *gpuBuffer
}

// StorageImage is implemented by *GpuImage[P].
type StorageImage interface {
	storageImage() *gpuImage
}

// ConstImage is implemented by *GpuConstImage[P].
type ConstImage interface {
	constImage() *gpuImage
}

func (b *GpuBuffer[T]) storageBuffer() *gpuBuffer {
	if b == nil {
		return nil
	}
	return b.gpuBuffer
}

func (b *GpuUniformBuffer[T]) uniformBuffer() *gpuBuffer {
	if b == nil {
		return nil
	}
	return b.gpuBuffer
}

func (img *GpuImage[P]) storageImage() *gpuImage {
	if img == nil {
		return nil
	}
	return img.gpuImage
}

func (img *GpuConstImage[P]) constImage() *gpuImage {
	if img == nil {
		return nil
	}
	return img.gpuImage
}

// DescriptorSet is a group of resources bound to the slots of one bind
// group, @group(i) in WGSL where i is the set's position in the Program.
//
// Binders chain and never fail immediately: the first problem (a nil or
// released resource, a reused binding number) is recorded and returned by
// Err and NewKernel.
//
//	set := gpgpu.NewDescriptorSet().
//		BindUniformBuffer(params, 0).
//		BindBuffer(input, gpgpu.ReadOnly, 1).
//		BindBuffer(output, gpgpu.ReadWrite, 2)
type DescriptorSet struct {
	layout   *SetLayout
	entries  []wgpu.BindGroupEntry
	released []func() bool
	err      error
}

// NewDescriptorSet returns an empty descriptor set.
func NewDescriptorSet() *DescriptorSet {
	return &DescriptorSet{layout: NewSetLayout()}
}

// BindBuffer binds a storage buffer with the given shader access.
func (d *DescriptorSet) BindBuffer(buf StorageBuffer, access BufferAccess, binding uint32) *DescriptorSet {
	var b *gpuBuffer
	if buf != nil {
		b = buf.storageBuffer()
	}
	if b == nil {
		return d.fail(binding, "nil storage buffer")
	}
	d.layout.AddBuffer(binding, access)
	return d.addBuffer(b, binding)
}

// BindUniformBuffer binds a uniform buffer.
func (d *DescriptorSet) BindUniformBuffer(buf UniformBuffer, binding uint32) *DescriptorSet {
	var b *gpuBuffer
	if buf != nil {
		b = buf.uniformBuffer()
	}
	if b == nil {
		return d.fail(binding, "nil uniform buffer")
	}
	d.layout.AddUniformBuffer(binding)
	return d.addBuffer(b, binding)
}

// BindImage binds a storage image, write-only in the shader.
func (d *DescriptorSet) BindImage(img StorageImage, binding uint32) *DescriptorSet {
	var i *gpuImage
	if img != nil {
		i = img.storageImage()
	}
	if i == nil {
		return d.fail(binding, "nil image")
	}
	d.layout.AddImage(binding, i.pixel)
	return d.addImage(i, binding)
}

// BindConstImage binds a sampled image, read-only in the shader.
func (d *DescriptorSet) BindConstImage(img ConstImage, binding uint32) *DescriptorSet {
	var i *gpuImage
	if img != nil {
		i = img.constImage()
	}
	if i == nil {
		return d.fail(binding, "nil const image")
	}
	d.layout.AddConstImage(binding, i.pixel)
	return d.addImage(i, binding)
}

// BindSampler binds a sampler.
func (d *DescriptorSet) BindSampler(s *Sampler, binding uint32) *DescriptorSet {
	if s == nil {
		return d.fail(binding, "nil sampler")
	}
	d.layout.AddSampler(binding, s.filter)
	if d.layoutChanged() {
		d.entries = append(d.entries, wgpu.BindGroupEntry{Binding: binding, Sampler: s.sampler})
		d.released = append(d.released, s.released.Load)
	}
	return d
}

func (d *DescriptorSet) addBuffer(b *gpuBuffer, binding uint32) *DescriptorSet {
	if d.layoutChanged() {
		d.entries = append(d.entries, wgpu.BindGroupEntry{Binding: binding, Buffer: b.buf})
		d.released = append(d.released, b.isReleased)
	}
	return d
}

func (d *DescriptorSet) addImage(i *gpuImage, binding uint32) *DescriptorSet {
	if d.layoutChanged() {
		d.entries = append(d.entries, wgpu.BindGroupEntry{Binding: binding, TextureView: i.view})
		d.released = append(d.released, i.isReleased)
	}
	return d
}

// layoutChanged reports whether the last layout add succeeded, that is the
// layout has one more slot than there are entries.
func (d *DescriptorSet) layoutChanged() bool {
	return d.layout.Len() > len(d.entries)
}

func (d *DescriptorSet) fail(binding uint32, reason string) *DescriptorSet {
	if d.err == nil {
		d.err = &BindingError{Kind: ErrBindingMismatch, Binding: binding, Reason: reason}
	}
	return d
}

// Layout returns the slots of the set.
func (d *DescriptorSet) Layout() *SetLayout { return d.layout }

// Len returns the number of bound resources.
func (d *DescriptorSet) Len() int { return len(d.entries) }

// Err returns the first error recorded while binding, or ErrReleased when a
// bound resource has since been released.
func (d *DescriptorSet) Err() error {
	if d.err != nil {
		return d.err
	}
	if err := d.layout.Err(); err != nil {
		return err
	}
	for i, released := range d.released {
		if released() {
			return fmt.Errorf("binding %d: %w", d.entries[i].Binding, ErrReleased)
		}
	}
	return nil
}
