// Package shaders bundles the WGSL compute shaders used by the gpgpu
// examples and tools.
//
// Every shader has a single entry point called main. Load one on a device
// with gpgpu's Framework.Shader.
//
//	| Name    | Bindings (@group(0))                                              | Workgroup |
//	|---------|-------------------------------------------------------------------|-----------|
//	| add     | 0: a f32 read, 1: b f32 read, 2: c f32 read_write, 3: params      | 64        |
//	| mult    | 0: a u32 read, 1: b u32 read, 2: c u32 read_write, 3: params      | 64        |
//	| square  | 0: params uniform, 1: input f32 read, 2: output f32 read_write    | 64        |
//	| mirror  | 0: texture_2d<u32>, 1: storage rgba8uint write                    | 16x16     |
//	| invert  | 0: texture_2d<f32>, 1: storage rgba8unorm write                   | 16x16     |
//	| upscale | 0: texture_2d<f32>, 1: sampler, 2: storage rgba8unorm write       | 16x16     |
//
// The buffer shaders take the element count in a uniform params struct,
// {count: u32} for add and mult and {scale: f32, count: u32} for square.
// Invocations at or past count do nothing.
package shaders

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed *.wgsl
var files embed.FS

const ext = ".wgsl"

// Source returns the WGSL source of the named shader. The name may carry
// the .wgsl extension.
func Source(name string) (string, bool) {
	name = strings.TrimSuffix(name, ext)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	data, err := files.ReadFile(name + ext)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Must is like Source but panics for unknown names.
func Must(name string) string {
	src, ok := Source(name)
	if !ok {
		panic("shaders: unknown shader " + name)
	}
	return src
}

// Names returns the names of all bundled shaders, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if path.Ext(e.Name()) == ext {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	slices.Sort(names)
	return names
}

// FS returns the bundled shader files.
func FS() fs.FS { return files }
