package gpgpu

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// BufferAccess is the shader access mode of a storage buffer binding.
type BufferAccess uint8

const (
	// ReadOnly binds a buffer declared var<storage, read>.
	ReadOnly BufferAccess = iota
	// ReadWrite binds a buffer declared var<storage, read_write>.
	ReadWrite
	// WriteOnly is an alias of ReadWrite: WGSL has no write-only buffers.
	WriteOnly
)

// String returns the string representation of BufferAccess.
func (a BufferAccess) String() string {
	switch a {
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	case WriteOnly:
		return "WriteOnly"
	default:
		return fmt.Sprintf("BufferAccess(%d)", int(a))
	}
}

func (a BufferAccess) bindingType() gputypes.BufferBindingType {
	if a == ReadOnly {
		return gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BufferBindingTypeStorage
}

// BindingKind classifies a binding slot for validation against a shader.
type BindingKind uint8

const (
	KindUnknown BindingKind = iota
	KindUniformBuffer
	KindStorageBuffer
	KindReadOnlyStorageBuffer
	KindSampledImage
	KindStorageImage
	KindSampler
)

// String returns the string representation of BindingKind.
func (k BindingKind) String() string {
	switch k {
	case KindUniformBuffer:
		return "uniform buffer"
	case KindStorageBuffer:
		return "read-write storage buffer"
	case KindReadOnlyStorageBuffer:
		return "read-only storage buffer"
	case KindSampledImage:
		return "sampled image"
	case KindStorageImage:
		return "storage image"
	case KindSampler:
		return "sampler"
	default:
		return "unknown"
	}
}

// entryKind classifies a bind group layout entry.
func entryKind(e wgpu.BindGroupLayoutEntry) BindingKind {
	switch {
	case e.Buffer != nil:
		switch e.Buffer.Type {
		case gputypes.BufferBindingTypeUniform:
			return KindUniformBuffer
		case gputypes.BufferBindingTypeReadOnlyStorage:
			return KindReadOnlyStorageBuffer
		default:
			return KindStorageBuffer
		}
	case e.Texture != nil:
		return KindSampledImage
	case e.StorageTexture != nil:
		return KindStorageImage
	case e.Sampler != nil:
		return KindSampler
	default:
		return KindUnknown
	}
}

// SetLayout describes the binding slots of one bind group without the
// resources bound to them. All slots are visible to the compute stage.
//
// Adding a binding number twice records an error reported by Err and by
// NewKernel.
type SetLayout struct {
	entries []wgpu.BindGroupLayoutEntry
	err     error
}

// NewSetLayout returns an empty layout.
func NewSetLayout() *SetLayout {
	return &SetLayout{}
}

// AddBuffer adds a storage buffer slot.
func (l *SetLayout) AddBuffer(binding uint32, access BufferAccess) *SetLayout {
	return l.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: access.bindingType()},
	})
}

// AddUniformBuffer adds a uniform buffer slot.
func (l *SetLayout) AddUniformBuffer(binding uint32) *SetLayout {
	return l.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
}

// AddImage adds a write-only storage image slot of format p.
func (l *SetLayout) AddImage(binding uint32, p PixelInfo) *SetLayout {
	return l.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		StorageTexture: &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessWriteOnly,
			Format:        p.Format(),
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	})
}

// AddConstImage adds a sampled image slot of format p.
func (l *SetLayout) AddConstImage(binding uint32, p PixelInfo) *SetLayout {
	return l.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    p.SampleType(),
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	})
}

// AddSampler adds a sampler slot. Linear samplers need a filterable image.
func (l *SetLayout) AddSampler(binding uint32, filter FilterMode) *SetLayout {
	return l.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Sampler:    &gputypes.SamplerBindingLayout{Type: filter.bindingType()},
	})
}

func (l *SetLayout) add(e wgpu.BindGroupLayoutEntry) *SetLayout {
	if l.index(e.Binding) >= 0 {
		l.setErr(&BindingError{
			Kind:    ErrDuplicateBinding,
			Binding: e.Binding,
			Reason:  "binding already used by a " + entryKind(l.entries[l.index(e.Binding)]).String(),
		})
		return l
	}
	l.entries = append(l.entries, e)
	return l
}

func (l *SetLayout) setErr(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *SetLayout) index(binding uint32) int {
	return slices.IndexFunc(l.entries, func(e wgpu.BindGroupLayoutEntry) bool {
		return e.Binding == binding
	})
}

// Entries returns the slots sorted by binding number.
func (l *SetLayout) Entries() []wgpu.BindGroupLayoutEntry {
	out := slices.Clone(l.entries)
	slices.SortFunc(out, func(a, b wgpu.BindGroupLayoutEntry) int {
		return cmp.Compare(a.Binding, b.Binding)
	})
	return out
}

// Entry returns the slot with the given binding number.
func (l *SetLayout) Entry(binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	i := l.index(binding)
	if i < 0 {
		return wgpu.BindGroupLayoutEntry{}, false
	}
	return l.entries[i], true
}

// Len returns the number of slots.
func (l *SetLayout) Len() int { return len(l.entries) }

// Err returns the first error recorded while building the layout.
func (l *SetLayout) Err() error { return l.err }
