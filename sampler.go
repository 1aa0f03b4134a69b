package gpgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// WrapMode selects how texture coordinates outside [0, 1] are handled.
type WrapMode uint8

const (
	// ClampToEdge clamps coordinates to the edge texels.
	ClampToEdge WrapMode = iota
	// Repeat tiles the image.
	Repeat
	// MirrorRepeat tiles the image, mirroring every other tile.
	MirrorRepeat
)

// String returns the string representation of WrapMode.
func (m WrapMode) String() string {
	switch m {
	case ClampToEdge:
		return "ClampToEdge"
	case Repeat:
		return "Repeat"
	case MirrorRepeat:
		return "MirrorRepeat"
	default:
		return fmt.Sprintf("WrapMode(%d)", int(m))
	}
}

func (m WrapMode) addressMode() wgpu.AddressMode {
	switch m {
	case Repeat:
		return gputypes.AddressModeRepeat
	case MirrorRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

// FilterMode selects texel filtering.
type FilterMode uint8

const (
	// Nearest returns the closest texel.
	Nearest FilterMode = iota
	// Linear interpolates between neighboring texels.
	Linear
)

// String returns the string representation of FilterMode.
func (m FilterMode) String() string {
	switch m {
	case Nearest:
		return "Nearest"
	case Linear:
		return "Linear"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

func (m FilterMode) filterMode() wgpu.FilterMode {
	if m == Linear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// bindingType is the sampler binding type a layout must declare.
func (m FilterMode) bindingType() gputypes.SamplerBindingType {
	if m == Linear {
		return gputypes.SamplerBindingTypeFiltering
	}
	return gputypes.SamplerBindingTypeNonFiltering
}

// Sampler samples a GpuConstImage in shaders.
type Sampler struct {
	sampler  *wgpu.Sampler
	wrap     WrapMode
	filter   FilterMode
	released atomic.Bool
}

// NewSampler creates a sampler using wrap on every axis and filter for
// magnification, minification and mipmaps.
func NewSampler(fw *Framework, wrap WrapMode, filter FilterMode) (*Sampler, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	s, err := fw.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        fw.label(fmt.Sprintf("sampler<%s,%s>", wrap, filter)),
		AddressModeU: wrap.addressMode(),
		AddressModeV: wrap.addressMode(),
		AddressModeW: wrap.addressMode(),
		MagFilter:    filter.filterMode(),
		MinFilter:    filter.filterMode(),
		MipmapFilter: filter.filterMode(),
		LodMinClamp:  0,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: create sampler: %w", err)
	}
	return &Sampler{sampler: s, wrap: wrap, filter: filter}, nil
}

// WrapMode returns the wrap mode.
func (s *Sampler) WrapMode() WrapMode { return s.wrap }

// FilterMode returns the filter mode.
func (s *Sampler) FilterMode() FilterMode { return s.filter }

// Raw returns the wrapped sampler.
func (s *Sampler) Raw() *wgpu.Sampler { return s.sampler }

// Release frees the sampler. It is safe to call more than once.
func (s *Sampler) Release() {
	if s.released.Swap(true) {
		return
	}
	s.sampler.Release()
}
