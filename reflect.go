package gpgpu

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu"
)

// EntryPoint is a compute entry point found in a shader.
type EntryPoint struct {
	Name      string
	Workgroup [3]uint32
}

// Invocations returns the number of invocations in one workgroup.
func (e EntryPoint) Invocations() uint32 {
	return e.Workgroup[0] * e.Workgroup[1] * e.Workgroup[2]
}

// Binding is a resource variable declared with @group and @binding.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	Kind    BindingKind

	// StorageFormat is set for storage images.
	StorageFormat wgpu.TextureFormat
	// StorageAccess is set for storage images.
	StorageAccess gputypes.StorageTextureAccess
	// SampleKind is set for sampled images.
	SampleKind gputypes.TextureSampleType
}

func (b Binding) String() string {
	return fmt.Sprintf("@group(%d) @binding(%d) %s: %s", b.Group, b.Binding, b.Name, b.Kind)
}

// Reflection describes the compute interface of a WGSL module.
type Reflection struct {
	EntryPoints []EntryPoint
	// Bindings is sorted by group, then binding.
	Bindings []Binding
}

// Reflect parses WGSL source with naga and extracts its compute entry
// points and resource bindings.
func Reflect(source string) (*Reflection, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("gpgpu: reflect: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("gpgpu: reflect: %w", err)
	}
	return reflectModule(module), nil
}

func reflectModule(m *ir.Module) *Reflection {
	r := &Reflection{}
	for _, ep := range m.EntryPoints {
		if ep.Stage != ir.StageCompute {
			continue
		}
		r.EntryPoints = append(r.EntryPoints, EntryPoint{Name: ep.Name, Workgroup: ep.Workgroup})
	}

	for _, gv := range m.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		b := Binding{Group: gv.Binding.Group, Binding: gv.Binding.Binding, Name: gv.Name}
		switch gv.Space {
		case ir.SpaceUniform:
			b.Kind = KindUniformBuffer
		case ir.SpaceStorage:
			b.Kind = KindStorageBuffer
			if gv.Access == ir.StorageRead {
				b.Kind = KindReadOnlyStorageBuffer
			}
		case ir.SpaceHandle:
			describeHandle(m, gv.Type, &b)
		}
		r.Bindings = append(r.Bindings, b)
	}

	slices.SortFunc(r.Bindings, func(a, b Binding) int {
		if c := cmp.Compare(a.Group, b.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Binding, b.Binding)
	})
	return r
}

// describeHandle fills in the kind of a sampler or image variable.
func describeHandle(m *ir.Module, th ir.TypeHandle, b *Binding) {
	if int(th) >= len(m.Types) {
		return
	}
	switch t := m.Types[th].Inner.(type) {
	case ir.BindingArrayType:
		describeHandle(m, t.Base, b)
	case ir.SamplerType:
		b.Kind = KindSampler
	case ir.ImageType:
		switch t.Class {
		case ir.ImageClassStorage:
			b.Kind = KindStorageImage
			b.StorageFormat = storageFormat(t.StorageFormat)
			b.StorageAccess = storageAccess(t.StorageAccess)
		case ir.ImageClassSampled:
			b.Kind = KindSampledImage
			b.SampleKind = sampleKind(t.SampledKind)
		case ir.ImageClassDepth:
			b.Kind = KindSampledImage
			b.SampleKind = gputypes.TextureSampleTypeDepth
		}
	}
}

func storageFormat(f ir.StorageFormat) wgpu.TextureFormat {
	switch f {
	case ir.StorageFormatRgba8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case ir.StorageFormatRgba8Snorm:
		return gputypes.TextureFormatRGBA8Snorm
	case ir.StorageFormatRgba8Uint:
		return gputypes.TextureFormatRGBA8Uint
	case ir.StorageFormatRgba8Sint:
		return gputypes.TextureFormatRGBA8Sint
	case ir.StorageFormatBgra8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case ir.StorageFormatR32Float:
		return gputypes.TextureFormatR32Float
	case ir.StorageFormatR32Uint:
		return gputypes.TextureFormatR32Uint
	case ir.StorageFormatR32Sint:
		return gputypes.TextureFormatR32Sint
	case ir.StorageFormatRg32Float:
		return gputypes.TextureFormatRG32Float
	case ir.StorageFormatRgba16Float:
		return gputypes.TextureFormatRGBA16Float
	case ir.StorageFormatRgba32Float:
		return gputypes.TextureFormatRGBA32Float
	case ir.StorageFormatRgba32Uint:
		return gputypes.TextureFormatRGBA32Uint
	default:
		return gputypes.TextureFormatUndefined
	}
}

func storageAccess(a ir.StorageAccess) gputypes.StorageTextureAccess {
	switch a {
	case ir.StorageAccessRead:
		return gputypes.StorageTextureAccessReadOnly
	case ir.StorageAccessWrite:
		return gputypes.StorageTextureAccessWriteOnly
	default:
		return gputypes.StorageTextureAccessReadWrite
	}
}

func sampleKind(k ir.ScalarKind) gputypes.TextureSampleType {
	switch k {
	case ir.ScalarSint:
		return gputypes.TextureSampleTypeSint
	case ir.ScalarUint:
		return gputypes.TextureSampleTypeUint
	default:
		return gputypes.TextureSampleTypeFloat
	}
}

// EntryPoint returns the compute entry point called name.
func (r *Reflection) EntryPoint(name string) (EntryPoint, bool) {
	i := slices.IndexFunc(r.EntryPoints, func(e EntryPoint) bool { return e.Name == name })
	if i < 0 {
		return EntryPoint{}, false
	}
	return r.EntryPoints[i], true
}

// BindingsInGroup returns the bindings of one group.
func (r *Reflection) BindingsInGroup(group uint32) []Binding {
	var out []Binding
	for _, b := range r.Bindings {
		if b.Group == group {
			out = append(out, b)
		}
	}
	return out
}

// Check verifies that sets, indexed by group, provide every binding the
// shader declares with a matching kind and format, bind nothing else, and
// that entry names a compute entry point. All mismatches are reported,
// joined.
//
// Bindings are taken from the whole module, so a shader with several entry
// points must satisfy the union of their resources.
func (r *Reflection) Check(entry string, sets []*SetLayout) error {
	if _, ok := r.EntryPoint(entry); !ok {
		return fmt.Errorf("%w: %q", ErrEntryPointNotFound, entry)
	}

	var errs []error
	for _, b := range r.Bindings {
		if int(b.Group) >= len(sets) || sets[b.Group] == nil {
			errs = append(errs, b.mismatch(fmt.Sprintf("%s %s is not provided: no descriptor set for group %d", b.Kind, b.Name, b.Group)))
			continue
		}
		e, ok := sets[b.Group].Entry(b.Binding)
		if !ok {
			errs = append(errs, b.mismatch(fmt.Sprintf("%s %s is not bound", b.Kind, b.Name)))
			continue
		}
		if err := b.matches(e); err != nil {
			errs = append(errs, err)
		}
	}
	for group, set := range sets {
		if set == nil {
			continue
		}
		for _, e := range set.Entries() {
			if !r.declares(uint32(group), e.Binding) {
				errs = append(errs, &BindingError{
					Kind:    ErrBindingMismatch,
					Group:   uint32(group),
					Binding: e.Binding,
					Reason:  fmt.Sprintf("%s is bound but not declared by the shader", entryKind(e)),
				})
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Reflection) declares(group, binding uint32) bool {
	return slices.ContainsFunc(r.Bindings, func(b Binding) bool {
		return b.Group == group && b.Binding == binding
	})
}

func (b Binding) mismatch(reason string) error {
	return &BindingError{Kind: ErrBindingMismatch, Group: b.Group, Binding: b.Binding, Reason: reason}
}

// matches compares a shader binding with the layout entry bound to it.
func (b Binding) matches(e wgpu.BindGroupLayoutEntry) error {
	got := entryKind(e)
	if b.Kind == KindUnknown {
		return nil
	}
	if got != b.Kind {
		return b.mismatch(fmt.Sprintf("shader declares %s %s, bound %s", b.Kind, b.Name, got))
	}

	switch b.Kind {
	case KindStorageImage:
		st := e.StorageTexture
		if b.StorageFormat != gputypes.TextureFormatUndefined && st.Format != b.StorageFormat {
			return b.mismatch(fmt.Sprintf("shader declares format %s, bound %s", b.StorageFormat, st.Format))
		}
		if st.Access != b.StorageAccess {
			return b.mismatch(fmt.Sprintf("shader declares access %s, bound %s", b.StorageAccess, st.Access))
		}
	case KindSampledImage:
		if !sampleTypeCompatible(b.SampleKind, e.Texture.SampleType) {
			return b.mismatch(fmt.Sprintf("shader samples %s, bound %s", b.SampleKind, e.Texture.SampleType))
		}
	}
	return nil
}

// sampleTypeCompatible reports whether an image of sample type bound can be
// read as a texture declared with sample type declared.
func sampleTypeCompatible(declared, bound gputypes.TextureSampleType) bool {
	if declared == bound {
		return true
	}
	return declared == gputypes.TextureSampleTypeFloat && bound == gputypes.TextureSampleTypeUnfilterableFloat
}
