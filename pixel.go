package gpgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// PixelInfo describes the texel format of an image. The implementations are
// zero-size marker types used as the type parameter of GpuImage and
// GpuConstImage.
type PixelInfo interface {
	// ByteSize is the size of one texel in bytes.
	ByteSize() int
	// Format is the texture format.
	Format() wgpu.TextureFormat
	// SampleType is the sample type of the format in a sampled binding.
	SampleType() gputypes.TextureSampleType
	// WGSL is the format name used in WGSL storage texture declarations.
	WGSL() string
	String() string
}

// Rgba8Uint has four 8-bit unsigned channels, read as vec4<u32> in shaders.
type Rgba8Uint struct{}

func (Rgba8Uint) ByteSize() int                          { return 4 }
func (Rgba8Uint) Format() wgpu.TextureFormat             { return gputypes.TextureFormatRGBA8Uint }
func (Rgba8Uint) SampleType() gputypes.TextureSampleType { return gputypes.TextureSampleTypeUint }
func (Rgba8Uint) WGSL() string                           { return "rgba8uint" }
func (Rgba8Uint) String() string                         { return "Rgba8Uint" }

// Rgba8UintNorm has four 8-bit unsigned channels normalized to [0, 1]
// floats in shaders.
type Rgba8UintNorm struct{}

func (Rgba8UintNorm) ByteSize() int                          { return 4 }
func (Rgba8UintNorm) Format() wgpu.TextureFormat             { return gputypes.TextureFormatRGBA8Unorm }
func (Rgba8UintNorm) SampleType() gputypes.TextureSampleType { return gputypes.TextureSampleTypeFloat }
func (Rgba8UintNorm) WGSL() string                           { return "rgba8unorm" }
func (Rgba8UintNorm) String() string                         { return "Rgba8UintNorm" }

// Rgba8Sint has four 8-bit signed channels, read as vec4<i32> in shaders.
type Rgba8Sint struct{}

func (Rgba8Sint) ByteSize() int                          { return 4 }
func (Rgba8Sint) Format() wgpu.TextureFormat             { return gputypes.TextureFormatRGBA8Sint }
func (Rgba8Sint) SampleType() gputypes.TextureSampleType { return gputypes.TextureSampleTypeSint }
func (Rgba8Sint) WGSL() string                           { return "rgba8sint" }
func (Rgba8Sint) String() string                         { return "Rgba8Sint" }

// Rgba8SintNorm has four 8-bit signed channels normalized to [-1, 1]
// floats in shaders.
type Rgba8SintNorm struct{}

func (Rgba8SintNorm) ByteSize() int                          { return 4 }
func (Rgba8SintNorm) Format() wgpu.TextureFormat             { return gputypes.TextureFormatRGBA8Snorm }
func (Rgba8SintNorm) SampleType() gputypes.TextureSampleType { return gputypes.TextureSampleTypeFloat }
func (Rgba8SintNorm) WGSL() string                           { return "rgba8snorm" }
func (Rgba8SintNorm) String() string                         { return "Rgba8SintNorm" }

// Rgba32Float has four 32-bit float channels. It cannot be filtered.
type Rgba32Float struct{}

func (Rgba32Float) ByteSize() int              { return 16 }
func (Rgba32Float) Format() wgpu.TextureFormat { return gputypes.TextureFormatRGBA32Float }
func (Rgba32Float) SampleType() gputypes.TextureSampleType {
	return gputypes.TextureSampleTypeUnfilterableFloat
}
func (Rgba32Float) WGSL() string   { return "rgba32float" }
func (Rgba32Float) String() string { return "Rgba32Float" }

// R32Float has a single 32-bit float channel. It cannot be filtered.
type R32Float struct{}

func (R32Float) ByteSize() int              { return 4 }
func (R32Float) Format() wgpu.TextureFormat { return gputypes.TextureFormatR32Float }
func (R32Float) SampleType() gputypes.TextureSampleType {
	return gputypes.TextureSampleTypeUnfilterableFloat
}
func (R32Float) WGSL() string   { return "r32float" }
func (R32Float) String() string { return "R32Float" }

// R32Uint has a single 32-bit unsigned channel.
type R32Uint struct{}

func (R32Uint) ByteSize() int                          { return 4 }
func (R32Uint) Format() wgpu.TextureFormat             { return gputypes.TextureFormatR32Uint }
func (R32Uint) SampleType() gputypes.TextureSampleType { return gputypes.TextureSampleTypeUint }
func (R32Uint) WGSL() string                           { return "r32uint" }
func (R32Uint) String() string                         { return "R32Uint" }

// isRGBA8 reports whether p stores 8-bit RGBA texels, the layout of image.RGBA.
func isRGBA8(p PixelInfo) bool {
	switch p.(type) {
	case Rgba8Uint, Rgba8UintNorm, Rgba8Sint, Rgba8SintNorm:
		return true
	}
	return false
}
