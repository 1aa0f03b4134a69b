package gpgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

func TestSetLayoutKinds(t *testing.T) {
	l := NewSetLayout().
		AddUniformBuffer(0).
		AddBuffer(1, ReadOnly).
		AddBuffer(2, ReadWrite).
		AddBuffer(3, WriteOnly).
		AddConstImage(4, Rgba8UintNorm{}).
		AddImage(5, Rgba8Uint{}).
		AddSampler(6, Linear)

	if err := l.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if l.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", l.Len())
	}

	want := []BindingKind{
		KindUniformBuffer,
		KindReadOnlyStorageBuffer,
		KindStorageBuffer,
		KindStorageBuffer,
		KindSampledImage,
		KindStorageImage,
		KindSampler,
	}
	for i, e := range l.Entries() {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d", i, e.Binding)
		}
		if got := entryKind(e); got != want[i] {
			t.Errorf("binding %d kind = %v, want %v", i, got, want[i])
		}
		if e.Visibility != wgpu.ShaderStageCompute {
			t.Errorf("binding %d visibility = %v, want compute", i, e.Visibility)
		}
	}

	img, _ := l.Entry(5)
	if img.StorageTexture.Format != gputypes.TextureFormatRGBA8Uint ||
		img.StorageTexture.Access != gputypes.StorageTextureAccessWriteOnly {
		t.Errorf("storage image entry = %+v", img.StorageTexture)
	}
	tex, _ := l.Entry(4)
	if tex.Texture.SampleType != gputypes.TextureSampleTypeFloat {
		t.Errorf("sampled image sample type = %v, want float", tex.Texture.SampleType)
	}
	smp, _ := l.Entry(6)
	if smp.Sampler.Type != gputypes.SamplerBindingTypeFiltering {
		t.Errorf("linear sampler type = %v, want filtering", smp.Sampler.Type)
	}
}

func TestSetLayoutEntriesSorted(t *testing.T) {
	l := NewSetLayout().AddBuffer(7, ReadOnly).AddBuffer(2, ReadOnly).AddUniformBuffer(4)

	var got []uint32
	for _, e := range l.Entries() {
		got = append(got, e.Binding)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 4 || got[2] != 7 {
		t.Errorf("Entries() bindings = %v, want [2 4 7]", got)
	}
	if _, ok := l.Entry(3); ok {
		t.Error("Entry(3) found a missing binding")
	}
}

func TestSetLayoutDuplicate(t *testing.T) {
	l := NewSetLayout().AddBuffer(0, ReadOnly).AddUniformBuffer(0).AddSampler(0, Nearest)

	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	err := l.Err()
	if !errors.Is(err, ErrDuplicateBinding) {
		t.Fatalf("Err() = %v, want ErrDuplicateBinding", err)
	}
	var be *BindingError
	if !errors.As(err, &be) || be.Binding != 0 {
		t.Errorf("BindingError = %+v", be)
	}
	// The first error is kept.
	if e, _ := l.Entry(0); entryKind(e) != KindReadOnlyStorageBuffer {
		t.Errorf("binding 0 kind = %v", entryKind(e))
	}
}

func TestBufferAccessBindingType(t *testing.T) {
	tests := []struct {
		access BufferAccess
		want   gputypes.BufferBindingType
		name   string
	}{
		{ReadOnly, gputypes.BufferBindingTypeReadOnlyStorage, "ReadOnly"},
		{ReadWrite, gputypes.BufferBindingTypeStorage, "ReadWrite"},
		{WriteOnly, gputypes.BufferBindingTypeStorage, "WriteOnly"},
	}
	for _, tt := range tests {
		if got := tt.access.bindingType(); got != tt.want {
			t.Errorf("%v.bindingType() = %v, want %v", tt.access, got, tt.want)
		}
		if tt.access.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.access.String(), tt.name)
		}
	}
	if got := BufferAccess(9).String(); got != "BufferAccess(9)" {
		t.Errorf("String() = %q", got)
	}
}
