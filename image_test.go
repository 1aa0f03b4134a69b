package gpgpu

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestValidateImageData(t *testing.T) {
	tests := []struct {
		name          string
		pixel         PixelInfo
		width, height uint32
		n             int
		want          error
	}{
		{"exact", Rgba8Uint{}, 4, 2, 32, nil},
		{"extra rows", Rgba8Uint{}, 4, 2, 48, nil},
		{"partial pixel", Rgba8Uint{}, 4, 2, 31, ErrNotIntegerPixelNumber},
		{"partial row", Rgba8Uint{}, 4, 2, 20, ErrNotIntegerRowNumber},
		{"too small", Rgba8Uint{}, 4, 2, 16, ErrBufferTooSmall},
		{"float pixels", Rgba32Float{}, 2, 2, 64, nil},
		{"float partial pixel", Rgba32Float{}, 2, 2, 60, ErrNotIntegerPixelNumber},
		{"pixel checked before row", Rgba8Uint{}, 3, 1, 5, ErrNotIntegerPixelNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImageData(tt.pixel, tt.width, tt.height, tt.n)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateImageDataSizeError(t *testing.T) {
	err := validateImageData(Rgba8Uint{}, 4, 4, 32)
	var se *SizeError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SizeError", err)
	}
	if se.Required != 64 || se.Current != 32 {
		t.Errorf("SizeError = %+v, want required 64 current 32", se)
	}
}

func TestUnpadRows(t *testing.T) {
	// Two rows of 3 bytes padded to 8.
	padded := []byte{1, 2, 3, 0, 0, 0, 0, 0, 4, 5, 6, 0, 0, 0, 0, 0}
	got := unpadRows(padded, 3, 8, 2)
	if want := []byte{1, 2, 3, 4, 5, 6}; !bytes.Equal(got, want) {
		t.Errorf("unpadRows() = %v, want %v", got, want)
	}

	tight := []byte{1, 2, 3, 4, 9, 9}
	if got := unpadRows(tight, 2, 2, 2); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("unpadRows(tight) = %v", got)
	}
}

func TestPixelInfo(t *testing.T) {
	tests := []struct {
		p     PixelInfo
		size  int
		wgsl  string
		rgba8 bool
	}{
		{Rgba8Uint{}, 4, "rgba8uint", true},
		{Rgba8UintNorm{}, 4, "rgba8unorm", true},
		{Rgba8Sint{}, 4, "rgba8sint", true},
		{Rgba8SintNorm{}, 4, "rgba8snorm", true},
		{Rgba32Float{}, 16, "rgba32float", false},
		{R32Float{}, 4, "r32float", false},
		{R32Uint{}, 4, "r32uint", false},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if tt.p.ByteSize() != tt.size {
				t.Errorf("ByteSize() = %d, want %d", tt.p.ByteSize(), tt.size)
			}
			if tt.p.WGSL() != tt.wgsl {
				t.Errorf("WGSL() = %q, want %q", tt.p.WGSL(), tt.wgsl)
			}
			if isRGBA8(tt.p) != tt.rgba8 {
				t.Errorf("isRGBA8() = %v, want %v", isRGBA8(tt.p), tt.rgba8)
			}
		})
	}
}

func TestToNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.RGBA{255, 0, 0, 255})
	src.Set(11, 10, color.RGBA{0, 0, 255, 255})

	got := ToNRGBA(src)
	if got.Rect != image.Rect(0, 0, 2, 1) {
		t.Fatalf("Rect = %v, want origin at (0,0)", got.Rect)
	}
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v", c)
	}
	if c := got.NRGBAAt(1, 0); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("pixel (1,0) = %v", c)
	}

	if again := ToNRGBA(got); again != got {
		t.Error("ToNRGBA should return a packed NRGBA unchanged")
	}
}

func TestScaleCPU(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	src.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})

	nearest := ScaleCPU(src, 4, 4, Nearest)
	if nearest.Bounds().Dx() != 4 || nearest.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v", nearest.Bounds())
	}
	if c := nearest.NRGBAAt(1, 1); c.R != 255 {
		t.Errorf("nearest (1,1) = %v, want white", c)
	}
	if c := nearest.NRGBAAt(2, 1); c.R != 0 {
		t.Errorf("nearest (2,1) = %v, want black", c)
	}

	linear := ScaleCPU(src, 4, 4, Linear)
	if c := linear.NRGBAAt(1, 1); c.R == 0 || c.R == 255 {
		t.Logf("linear (1,1) = %v", c)
	}
}

func TestSavePNGDecodeImageFile(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 80), G: uint8(y * 120), B: 33, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "round.png")
	if err := SavePNG(path, src); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeImageFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := ToNRGBA(decoded)
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Errorf("pixels = %v, want %v", got.Pix, src.Pix)
	}

	if _, err := DecodeImageFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("DecodeImageFile of a missing file returned nil error")
	}
	if err := SavePNG(filepath.Join(t.TempDir(), "no", "dir.png"), src); err == nil {
		t.Error("SavePNG into a missing directory returned nil error")
	}
}
