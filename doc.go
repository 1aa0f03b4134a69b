// Package gpgpu provides a small general-purpose GPU compute API for Go.
//
// # Overview
//
// gpgpu is a thin convenience layer over the Pure Go WebGPU implementation
// (gogpu/wgpu). The wrapped library manages devices, command submission,
// memory and synchronization. gpgpu exposes those capabilities as a handful
// of types that cover the usual compute workflow: upload data, bind it,
// dispatch a shader, read results back.
//
// # Quick Start
//
//	import "github.com/gogpu/gpgpu"
//
//	fw, err := gpgpu.NewFramework()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer fw.Close()
//
//	a, _ := gpgpu.BufferFromSlice(fw, []uint32{1, 2, 3, 4})
//	b, _ := gpgpu.BufferFromSlice(fw, []uint32{5, 6, 7, 8})
//	c, _ := gpgpu.NewBuffer[uint32](fw, 4)
//	count, _ := gpgpu.UniformBufferFromSlice(fw, []uint32{4})
//
//	set := gpgpu.NewDescriptorSet().
//		BindBuffer(a, gpgpu.ReadOnly, 0).
//		BindBuffer(b, gpgpu.ReadOnly, 1).
//		BindBuffer(c, gpgpu.ReadWrite, 2).
//		BindUniformBuffer(count, 3)
//
//	shader, _ := fw.Shader("mult")
//	kernel, _ := gpgpu.NewKernel(fw, gpgpu.NewProgram(shader, "main").AddDescriptorSet(set))
//	_ = kernel.EnqueueFor(4)
//
//	out, _ := c.Read(context.Background())
//	// out == [5 12 21 32]
//
// # Types
//
//   - [Framework]: device and queue owner, entry point of the library
//   - [GpuBuffer], [GpuUniformBuffer]: typed storage and uniform buffers
//   - [GpuImage], [GpuConstImage]: 2D storage and sampled images
//   - [Sampler]: texture sampler for [GpuConstImage]
//   - [DescriptorSet]: resources bound to one bind group
//   - [Shader], [Program], [Kernel]: compute pipeline and dispatch
//
// # Shaders
//
// Shaders are WGSL (or SPIR-V) assets passed through unchanged to the
// wrapped library. WGSL sources are also parsed with gogpu/naga to reflect
// their entry points and bindings, which lets [NewKernel] report binding
// mismatches with readable errors and lets [Kernel.EnqueueFor] compute the
// workgroup count from the declared workgroup size.
//
// A set of ready-made shaders lives in the shaders subpackage and can be
// loaded with [Framework.Shader].
//
// # Backends
//
// The GPU backend is chosen by the WGPU_BACKEND environment variable
// (vulkan, metal, dx12, gl, primary, all) or by [WithBackends].
package gpgpu

// Version information
const (
	// Version is the current version of the library
	Version = "0.4.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 4

	// VersionPatch is the patch version
	VersionPatch = 0
)
