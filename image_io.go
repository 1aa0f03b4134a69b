package gpgpu

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	// Decoders for DecodeImageFile.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ToNRGBA converts any image to a tightly packed, non-premultiplied RGBA
// image with its origin at (0, 0). The result shares no memory with img
// unless img already has that layout.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ImageFromGo creates a storage image from a Go image. P must be an 8-bit
// RGBA format.
func ImageFromGo[P PixelInfo](fw *Framework, img image.Image) (*GpuImage[P], error) {
	var p P
	if !isRGBA8(p) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}
	n := ToNRGBA(img)
	return ImageFromBytes[P](fw, n.Pix, uint32(n.Rect.Dx()), uint32(n.Rect.Dy()))
}

// ConstImageFromGo creates a sampled image from a Go image. P must be an
// 8-bit RGBA format.
func ConstImageFromGo[P PixelInfo](fw *Framework, img image.Image) (*GpuConstImage[P], error) {
	var p P
	if !isRGBA8(p) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}
	n := ToNRGBA(img)
	return ConstImageFromBytes[P](fw, n.Pix, uint32(n.Rect.Dx()), uint32(n.Rect.Dy()))
}

// ToImage reads the image back into a Go image. P must be an 8-bit RGBA
// format; the bytes are used as is.
func (img *GpuImage[P]) ToImage(ctx context.Context) (*image.NRGBA, error) {
	if !isRGBA8(img.pixel) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, img.pixel)
	}
	data, err := img.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    data,
		Stride: img.rowBytes(),
		Rect:   image.Rect(0, 0, int(img.width), int(img.height)),
	}, nil
}

// DecodeImageFile decodes a png, jpeg, gif, bmp, tiff or webp file.
func DecodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("gpgpu: decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG encodes img as PNG to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ScaleCPU resizes src to width x height on the CPU with nearest or
// bilinear filtering. It is the reference the sampler shaders are
// compared against.
func ScaleCPU(src image.Image, width, height int, filter FilterMode) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	var s draw.Scaler = draw.NearestNeighbor
	if filter == Linear {
		s = draw.BiLinear
	}
	s.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
