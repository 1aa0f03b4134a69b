package gpgpu

import (
	"errors"
	"testing"
)

func TestDescriptorSetNilResources(t *testing.T) {
	var (
		buf     *GpuBuffer[float32]
		uniform *GpuUniformBuffer[float32]
		img     *GpuImage[Rgba8Uint]
		cimg    *GpuConstImage[Rgba8UintNorm]
	)

	tests := []struct {
		name string
		bind func(*DescriptorSet) *DescriptorSet
	}{
		{"untyped nil buffer", func(d *DescriptorSet) *DescriptorSet { return d.BindBuffer(nil, ReadOnly, 0) }},
		{"typed nil buffer", func(d *DescriptorSet) *DescriptorSet { return d.BindBuffer(buf, ReadOnly, 0) }},
		{"typed nil uniform", func(d *DescriptorSet) *DescriptorSet { return d.BindUniformBuffer(uniform, 0) }},
		{"typed nil image", func(d *DescriptorSet) *DescriptorSet { return d.BindImage(img, 0) }},
		{"typed nil const image", func(d *DescriptorSet) *DescriptorSet { return d.BindConstImage(cimg, 0) }},
		{"nil sampler", func(d *DescriptorSet) *DescriptorSet { return d.BindSampler(nil, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.bind(NewDescriptorSet())
			if d.Len() != 0 {
				t.Errorf("Len() = %d, want 0", d.Len())
			}
			err := d.Err()
			if !errors.Is(err, ErrBindingMismatch) {
				t.Fatalf("Err() = %v, want ErrBindingMismatch", err)
			}
		})
	}
}

func TestDescriptorSetKeepsFirstError(t *testing.T) {
	d := NewDescriptorSet().
		BindSampler(nil, 3).
		BindBuffer(nil, ReadOnly, 4)

	var be *BindingError
	if !errors.As(d.Err(), &be) {
		t.Fatalf("Err() = %v, want *BindingError", d.Err())
	}
	if be.Binding != 3 {
		t.Errorf("first error binding = %d, want 3", be.Binding)
	}
}

func TestDescriptorSetEmpty(t *testing.T) {
	d := NewDescriptorSet()
	if err := d.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	if d.Layout() == nil || d.Layout().Len() != 0 {
		t.Error("empty set should have an empty layout")
	}
}
