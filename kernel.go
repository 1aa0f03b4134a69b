// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/wgpu"
)

// Kernel is a compute pipeline with its bind groups, ready to dispatch.
//
// Enqueue only records and submits work; it does not wait. Reading a buffer
// or image written by the kernel waits for it.
//
// A Kernel is safe for concurrent use.
type Kernel struct {
	fw    *Framework
	label string
	entry EntryPoint

	layouts  []*wgpu.BindGroupLayout
	pipeLay  *wgpu.PipelineLayout
	pipeline *wgpu.ComputePipeline
	groups   []*wgpu.BindGroup
	sets     []*DescriptorSet

	released atomic.Bool
}

// NewKernel builds the pipeline for program.
//
// Errors recorded while binding descriptor sets are returned here, wrapped
// with the set index. When the shader was reflected the sets are also
// checked against its declared bindings before any GPU object is created.
func NewKernel(fw *Framework, program *Program) (*Kernel, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	if program == nil || program.shader == nil {
		return nil, ErrNoShader
	}
	shader := program.shader
	if shader.released.Load() {
		return nil, fmt.Errorf("gpgpu: shader %s: %w", shader.label, ErrReleased)
	}

	maxSets := MaxDescriptorSets
	if limit := int(fw.limits.MaxBindGroups); limit > 0 && limit < maxSets {
		maxSets = limit
	}
	if len(program.sets) > maxSets {
		return nil, fmt.Errorf("%w: %d sets, max. %d", ErrTooManySets, len(program.sets), maxSets)
	}
	for i, set := range program.sets {
		if set == nil {
			return nil, fmt.Errorf("gpgpu: descriptor set %d: %w", i, &BindingError{
				Kind: ErrBindingMismatch, Group: uint32(i), Reason: "nil descriptor set",
			})
		}
		if err := set.Err(); err != nil {
			return nil, fmt.Errorf("gpgpu: descriptor set %d: %w", i, err)
		}
	}

	label := shader.label + ":" + program.entry
	k := &Kernel{
		fw:    fw,
		label: label,
		entry: EntryPoint{Name: program.entry, Workgroup: [3]uint32{1, 1, 1}},
		sets:  append([]*DescriptorSet(nil), program.sets...),
	}

	if r := shader.reflection; r != nil {
		if err := r.Check(program.entry, program.layouts()); err != nil {
			return nil, fmt.Errorf("gpgpu: kernel %s: %w", label, err)
		}
		k.entry, _ = r.EntryPoint(program.entry)
	} else {
		Logger().Debug("gpgpu: kernel built without reflection, bindings not checked", "kernel", label)
	}

	if err := k.build(shader, program); err != nil {
		k.releaseObjects()
		return nil, err
	}
	Logger().Debug("gpgpu: kernel created",
		"kernel", label,
		"sets", len(k.sets),
		"workgroup", k.entry.Workgroup,
	)
	return k, nil
}

func (k *Kernel) build(shader *Shader, program *Program) error {
	device := k.fw.device

	for i, set := range k.sets {
		bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   k.fw.label(fmt.Sprintf("%s/layout%d", k.label, i)),
			Entries: set.layout.Entries(),
		})
		if err != nil {
			return fmt.Errorf("gpgpu: create bind group layout %d: %w", i, err)
		}
		k.layouts = append(k.layouts, bgl)
	}

	pl, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            k.fw.label(k.label + "/pipeline-layout"),
		BindGroupLayouts: k.layouts,
	})
	if err != nil {
		return fmt.Errorf("gpgpu: create pipeline layout: %w", err)
	}
	k.pipeLay = pl

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      k.fw.label(k.label),
		Layout:     pl,
		Module:     shader.module,
		EntryPoint: program.entry,
		Constants:  program.constantsCopy(),
	})
	if err != nil {
		return fmt.Errorf("gpgpu: create compute pipeline %s: %w", k.label, err)
	}
	k.pipeline = pipeline

	for i, set := range k.sets {
		bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   k.fw.label(fmt.Sprintf("%s/group%d", k.label, i)),
			Layout:  k.layouts[i],
			Entries: set.entries,
		})
		if err != nil {
			return fmt.Errorf("gpgpu: create bind group %d: %w", i, err)
		}
		k.groups = append(k.groups, bg)
	}
	return nil
}

// Enqueue dispatches x*y*z workgroups in one compute pass.
func (k *Kernel) Enqueue(x, y, z uint32) error {
	if k.released.Load() {
		return fmt.Errorf("gpgpu: kernel %s: %w", k.label, ErrReleased)
	}
	if x == 0 || y == 0 || z == 0 {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrZeroWorkgroups, x, y, z)
	}
	if limit := k.fw.limits.MaxComputeWorkgroupsPerDimension; limit > 0 && max(x, y, z) > limit {
		return fmt.Errorf("%w: (%d, %d, %d), max. %d per dimension", ErrWorkgroupLimit, x, y, z, limit)
	}
	for i, set := range k.sets {
		if err := set.Err(); err != nil {
			return fmt.Errorf("gpgpu: kernel %s: descriptor set %d: %w", k.label, i, err)
		}
	}

	return k.fw.submit(k.label, func(enc *wgpu.CommandEncoder) error {
		pass, err := enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: k.label})
		if err != nil {
			return fmt.Errorf("gpgpu: begin compute pass: %w", err)
		}
		pass.SetPipeline(k.pipeline)
		for i, bg := range k.groups {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
		pass.Dispatch(x, y, z)
		if err := pass.End(); err != nil {
			return fmt.Errorf("gpgpu: end compute pass: %w", err)
		}
		return nil
	})
}

// EnqueueFor dispatches enough workgroups along x to cover n invocations.
func (k *Kernel) EnqueueFor(n uint32) error {
	return k.Enqueue(divCeil(n, k.entry.Workgroup[0]), 1, 1)
}

// EnqueueFor2D dispatches enough workgroups along x and y to cover a
// width x height grid of invocations.
func (k *Kernel) EnqueueFor2D(width, height uint32) error {
	return k.Enqueue(divCeil(width, k.entry.Workgroup[0]), divCeil(height, k.entry.Workgroup[1]), 1)
}

func divCeil(n, d uint32) uint32 {
	if d == 0 {
		d = 1
	}
	return n/d + min(n%d, 1)
}

// EntryPoint returns the entry point name.
func (k *Kernel) EntryPoint() string { return k.entry.Name }

// Workgroup returns the reflected workgroup size, or (1, 1, 1) when the
// shader was not reflected.
func (k *Kernel) Workgroup() [3]uint32 { return k.entry.Workgroup }

// Release frees the pipeline and bind groups. Bound resources are not
// released. It is safe to call more than once.
func (k *Kernel) Release() {
	if k.released.Swap(true) {
		return
	}
	k.releaseObjects()
}

func (k *Kernel) releaseObjects() {
	for _, bg := range k.groups {
		bg.Release()
	}
	if k.pipeline != nil {
		k.pipeline.Release()
	}
	if k.pipeLay != nil {
		k.pipeLay.Release()
	}
	for _, l := range k.layouts {
		l.Release()
	}
	k.groups, k.pipeline, k.pipeLay, k.layouts = nil, nil, nil, nil
}
