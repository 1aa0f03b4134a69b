// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// Texture usages.
const (
	storageImageUsage = wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding |
		wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	constImageUsage = wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
)

// gpuImage is the format-independent part of GpuImage and GpuConstImage.
type gpuImage struct {
	fw       *Framework
	tex      *wgpu.Texture
	view     *wgpu.TextureView
	width    uint32
	height   uint32
	pixel    PixelInfo
	released atomic.Bool
}

func newGpuImage(fw *Framework, pixel PixelInfo, width, height uint32, usage wgpu.TextureUsage, kind string) (*gpuImage, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpgpu: %s %dx%d: %w", kind, width, height, ErrInvalidDimensions)
	}

	label := fw.label(fmt.Sprintf("%s<%s>[%dx%d]", kind, pixel, width, height))
	tex, err := fw.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        pixel.Format(),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: create %s: %w", kind, err)
	}

	view, err := fw.device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:           label,
		Format:          pixel.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpgpu: create %s view: %w", kind, err)
	}

	Logger().Debug("gpgpu: image created", "label", label)
	return &gpuImage{fw: fw, tex: tex, view: view, width: width, height: height, pixel: pixel}, nil
}

// Dimensions returns the width and height in pixels.
func (img *gpuImage) Dimensions() (width, height uint32) { return img.width, img.height }

// Pixel returns the texel format.
func (img *gpuImage) Pixel() PixelInfo { return img.pixel }

// ByteSize returns the size of the tightly packed image data in bytes.
func (img *gpuImage) ByteSize() int {
	return img.rowBytes() * int(img.height)
}

// Raw returns the wrapped texture.
func (img *gpuImage) Raw() *wgpu.Texture { return img.tex }

// Release frees the texture. It is safe to call more than once.
func (img *gpuImage) Release() {
	if img.released.Swap(true) {
		return
	}
	img.view.Release()
	img.tex.Release()
}

func (img *gpuImage) isReleased() bool { return img.released.Load() }

func (img *gpuImage) rowBytes() int {
	return int(img.width) * img.pixel.ByteSize()
}

// Write uploads tightly packed rows of pixels. data must hold at least the
// whole image; extra bytes are ignored.
func (img *gpuImage) Write(data []byte) error {
	if img.isReleased() {
		return ErrReleased
	}
	if err := validateImageData(img.pixel, img.width, img.height, len(data)); err != nil {
		return err
	}
	return img.fw.writeTexture(img.tex, data[:img.ByteSize()], uint32(img.rowBytes()), img.width, img.height)
}

// validateImageData checks that n bytes are whole pixels, whole rows and
// cover a width x height image.
func validateImageData(pixel PixelInfo, width, height uint32, n int) error {
	bpp := pixel.ByteSize()
	if n%bpp != 0 {
		return ErrNotIntegerPixelNumber
	}
	if n%(bpp*int(width)) != 0 {
		return ErrNotIntegerRowNumber
	}
	if required := bpp * int(width) * int(height); n < required {
		return &SizeError{
			Kind:     ErrBufferTooSmall,
			Op:       "gpgpu: image write",
			Required: uint64(required),
			Current:  uint64(n),
		}
	}
	return nil
}

// GpuImage is a 2D storage image, written by shaders through a
// texture_storage_2d binding and readable from the host.
type GpuImage[P PixelInfo] struct {
	*gpuImage
}

// NewImage creates a zeroed storage image.
func NewImage[P PixelInfo](fw *Framework, width, height uint32) (*GpuImage[P], error) {
	var p P
	img, err := newGpuImage(fw, p, width, height, storageImageUsage, "image")
	if err != nil {
		return nil, err
	}
	return &GpuImage[P]{gpuImage: img}, nil
}

// ImageFromBytes creates a storage image holding data.
func ImageFromBytes[P PixelInfo](fw *Framework, data []byte, width, height uint32) (*GpuImage[P], error) {
	img, err := NewImage[P](fw, width, height)
	if err != nil {
		return nil, err
	}
	if err := img.Write(data); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}

// Read returns the image as tightly packed rows.
func (img *GpuImage[P]) Read(ctx context.Context) ([]byte, error) {
	p, err := img.startRead()
	if err != nil {
		return nil, err
	}
	data, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	return unpadRows(data, img.rowBytes(), int(alignRow(uint32(img.rowBytes()))), int(img.height)), nil
}

// ReadInto reads the image into dst and returns the number of bytes written.
// dst must hold the whole image.
func (img *GpuImage[P]) ReadInto(ctx context.Context, dst []byte) (int, error) {
	if need := img.ByteSize(); len(dst) < need {
		return 0, &SizeError{
			Kind:     ErrBufferTooSmall,
			Op:       "gpgpu.GpuImage.ReadInto",
			Required: uint64(need),
			Current:  uint64(len(dst)),
		}
	}
	data, err := img.Read(ctx)
	if err != nil {
		return 0, err
	}
	return copy(dst, data), nil
}

// ReadAsync starts a readback and returns without waiting.
func (img *GpuImage[P]) ReadAsync() (*Readback[[]byte], error) {
	p, err := img.startRead()
	if err != nil {
		return nil, err
	}
	row, padded, h := img.rowBytes(), int(alignRow(uint32(img.rowBytes()))), int(img.height)
	return newReadback(p, func(data []byte) []byte { return unpadRows(data, row, padded, h) }), nil
}

// startRead copies the texture into a staging buffer with 256-byte aligned
// rows and starts mapping it.
func (img *gpuImage) startRead() (*pendingDownload, error) {
	if img.isReleased() {
		return nil, ErrReleased
	}
	padded := alignRow(uint32(img.rowBytes()))
	size := uint64(padded) * uint64(img.height)
	return img.fw.startDownload("image", size, func(enc *wgpu.CommandEncoder, staging *wgpu.Buffer) {
		enc.CopyTextureToBuffer(img.tex, staging, []wgpu.BufferTextureCopy{{
			BufferLayout: wgpu.ImageDataLayout{
				BytesPerRow:  padded,
				RowsPerImage: img.height,
			},
			TextureBase: wgpu.ImageCopyTexture{
				Texture: img.tex,
				Aspect:  gputypes.TextureAspectAll,
			},
			Size: wgpu.Extent3D{Width: img.width, Height: img.height, DepthOrArrayLayers: 1},
		}})
	})
}

// unpadRows strips the per-row padding of a texture copy.
func unpadRows(data []byte, rowBytes, paddedRowBytes, rows int) []byte {
	if rowBytes == paddedRowBytes {
		return data[:rowBytes*rows]
	}
	out := make([]byte, rowBytes*rows)
	for y := range rows {
		copy(out[y*rowBytes:(y+1)*rowBytes], data[y*paddedRowBytes:y*paddedRowBytes+rowBytes])
	}
	return out
}

// GpuConstImage is a 2D sampled image, read by shaders through a texture_2d
// binding. It can be written but not read from the host.
type GpuConstImage[P PixelInfo] struct {
	*gpuImage
}

// NewConstImage creates a zeroed sampled image.
func NewConstImage[P PixelInfo](fw *Framework, width, height uint32) (*GpuConstImage[P], error) {
	var p P
	img, err := newGpuImage(fw, p, width, height, constImageUsage, "const-image")
	if err != nil {
		return nil, err
	}
	return &GpuConstImage[P]{gpuImage: img}, nil
}

// ConstImageFromBytes creates a sampled image holding data.
func ConstImageFromBytes[P PixelInfo](fw *Framework, data []byte, width, height uint32) (*GpuConstImage[P], error) {
	img, err := NewConstImage[P](fw, width, height)
	if err != nil {
		return nil, err
	}
	if err := img.Write(data); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}
