package gpgpu

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gogpu/gpgpu/shaders"
	"github.com/gogpu/wgpu"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Shader is a compiled shader module.
//
// Shaders created from WGSL carry a Reflection used by NewKernel to check
// descriptor sets. SPIR-V shaders are not reflected.
type Shader struct {
	module     *wgpu.ShaderModule
	label      string
	reflection *Reflection

	// cached shaders belong to the framework cache and ignore Release.
	cached   bool
	released atomic.Bool
}

// ShaderFromWGSL compiles WGSL source.
func ShaderFromWGSL(fw *Framework, source, label string) (*Shader, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	module, err := fw.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fw.label(label),
		WGSL:  source,
	})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: compile %s: %w", label, err)
	}

	s := &Shader{module: module, label: label}
	if r, err := Reflect(source); err != nil {
		Logger().Warn("gpgpu: shader reflection failed, bindings are not checked",
			"shader", label, "err", err)
	} else {
		s.reflection = r
	}
	Logger().Debug("gpgpu: shader compiled", "shader", label, "lang", "wgsl")
	return s, nil
}

// ShaderFromWGSLFile compiles a WGSL file. The label is the file name.
func ShaderFromWGSLFile(fw *Framework, path string) (*Shader, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("gpgpu: read shader: %w", err)
	}
	return ShaderFromWGSL(fw, string(src), filepath.Base(path))
}

// ShaderFromSPIRV loads a SPIR-V binary in either byte order.
func ShaderFromSPIRV(fw *Framework, data []byte, label string) (*Shader, error) {
	if err := fw.checkOpen(); err != nil {
		return nil, err
	}
	words, err := spirvWords(data)
	if err != nil {
		return nil, fmt.Errorf("gpgpu: %s: %w", label, err)
	}
	module, err := fw.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fw.label(label),
		SPIRV: words,
	})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: load %s: %w", label, err)
	}
	Logger().Debug("gpgpu: shader loaded", "shader", label, "lang", "spirv", "words", len(words))
	return &Shader{module: module, label: label}, nil
}

// ShaderFromSPIRVFile loads a SPIR-V file. The label is the file name.
func ShaderFromSPIRVFile(fw *Framework, path string) (*Shader, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("gpgpu: read shader: %w", err)
	}
	return ShaderFromSPIRV(fw, data, filepath.Base(path))
}

// spirvWords converts a SPIR-V binary to words, detecting the byte order
// from the magic number.
func spirvWords(data []byte) ([]uint32, error) {
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of 4", ErrInvalidSPIRV, len(data))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(data) == spirvMagic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(data) == spirvMagic:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad magic number %#08x", ErrInvalidSPIRV, binary.LittleEndian.Uint32(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return words, nil
}

// Shader returns one of the built-in shaders of package shaders, compiling
// it on first use. Built-in shaders are owned by the framework: Release on
// them is a no-op and they are freed by Close.
func (f *Framework) Shader(name string) (*Shader, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return f.shaders.GetOrCreate(name, func() (*Shader, error) {
		src, ok := shaders.Source(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownShader, name)
		}
		s, err := ShaderFromWGSL(f, src, name+".wgsl")
		if err != nil {
			return nil, err
		}
		s.cached = true
		return s, nil
	})
}

// Label returns the shader label.
func (s *Shader) Label() string { return s.label }

// Reflection returns the reflected interface, or nil for SPIR-V shaders and
// WGSL naga could not reflect.
func (s *Shader) Reflection() *Reflection { return s.reflection }

// Raw returns the wrapped shader module.
func (s *Shader) Raw() *wgpu.ShaderModule { return s.module }

// Release frees the shader module. Kernels built from it keep working.
func (s *Shader) Release() {
	if s.cached {
		return
	}
	s.release()
}

func (s *Shader) release() {
	if s.released.Swap(true) {
		return
	}
	s.module.Release()
}
