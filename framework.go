// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpgpu/internal/cache"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register every HAL backend available on this platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// Framework owns the GPU device and queue every other gpgpu object is
// created from.
//
// A Framework is safe for concurrent use. Resources created from it must be
// released before Close.
type Framework struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// owned reports whether Close releases device, adapter and instance.
	owned bool

	info   wgpu.AdapterInfo
	limits wgpu.Limits
	opts   frameworkOptions

	shaders *cache.Cache[string, *Shader]

	submitMu sync.Mutex
	// pollMu keeps the device alive while a poll runs; Close takes it
	// exclusively before releasing the device.
	pollMu sync.RWMutex
	closed atomic.Bool
}

// Framework implements gpucontext.DeviceProvider so it can be handed to
// other gogpu libraries sharing the same device.
var _ gpucontext.DeviceProvider = (*Framework)(nil)

// NewFramework creates an instance, picks an adapter and opens a device.
//
// Backends and power preference come from options, then from the
// WGPU_BACKEND and WGPU_POWER_PREF environment variables, then from the
// defaults (primary backends, high-performance adapter).
func NewFramework(opts ...FrameworkOption) (*Framework, error) {
	o := defaultFrameworkOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.applyEnv(lookupEnv)
	if o.logger != nil {
		SetLogger(o.logger)
	}

	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{Backends: o.backends})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: create instance: %w", err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      o.power,
		ForceFallbackAdapter: o.forceFallback,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}

	desc := &wgpu.DeviceDescriptor{Label: o.label}
	if o.limits != nil {
		desc.RequiredLimits = *o.limits
	}
	device, err := adapter.RequestDevice(desc)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	if device.Queue() == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, ErrNoQueue
	}

	f := newFramework(device, o)
	f.instance = instance
	f.adapter = adapter
	f.info = adapter.Info()
	f.owned = true

	Logger().Info("gpgpu: adapter selected",
		"name", f.info.Name,
		"backend", f.info.Backend.String(),
		"type", f.info.DeviceType.String(),
	)
	return f, nil
}

// Default creates a Framework configured from the environment only.
func Default() (*Framework, error) {
	return NewFramework()
}

// FromDevice wraps a device created elsewhere. The adapter is optional and
// only used for Info. Close does not release a borrowed device.
func FromDevice(device *wgpu.Device, adapter *wgpu.Adapter, opts ...FrameworkOption) (*Framework, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	if device.Queue() == nil {
		return nil, ErrNoQueue
	}

	o := defaultFrameworkOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}

	f := newFramework(device, o)
	if adapter != nil {
		f.adapter = adapter
		f.info = adapter.Info()
	}
	return f, nil
}

// FromProvider wraps the device of a host application, for example a
// gogpu window, so compute work shares its GPU. Close does not release it.
func FromProvider(p gpucontext.DeviceProvider, opts ...FrameworkOption) (*Framework, error) {
	if p == nil {
		return nil, ErrNoDevice
	}
	device, ok := p.Device().(*wgpu.Device)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedDevice, p.Device())
	}
	adapter, _ := p.Adapter().(*wgpu.Adapter)

	f, err := FromDevice(device, adapter, opts...)
	if err != nil {
		return nil, err
	}
	if adapter == nil {
		info := p.AdapterInfo()
		f.info.Name = info.Name
		f.info.DeviceType = deviceTypeFromAdapterType(info.Type)
	}
	return f, nil
}

func newFramework(device *wgpu.Device, o frameworkOptions) *Framework {
	f := &Framework{
		device: device,
		queue:  device.Queue(),
		limits: device.Limits(),
		opts:   o,
	}
	f.shaders = cache.New(o.cacheSize, func(name string, s *Shader) {
		Logger().Debug("gpgpu: shader evicted", "name", name)
		s.release()
	})
	return f
}

// Info returns the adapter description. It is zero for frameworks built
// with FromDevice without an adapter.
func (f *Framework) Info() wgpu.AdapterInfo { return f.info }

// Limits returns the device limits.
func (f *Framework) Limits() wgpu.Limits { return f.limits }

// WGPUDevice returns the wrapped device.
func (f *Framework) WGPUDevice() *wgpu.Device { return f.device }

// WGPUQueue returns the wrapped queue.
func (f *Framework) WGPUQueue() *wgpu.Queue { return f.queue }

// Device implements gpucontext.DeviceProvider.
func (f *Framework) Device() gpucontext.Device { return f.device }

// Queue implements gpucontext.DeviceProvider.
func (f *Framework) Queue() gpucontext.Queue { return f.queue }

// Adapter implements gpucontext.DeviceProvider. It may be nil.
func (f *Framework) Adapter() gpucontext.Adapter {
	if f.adapter == nil {
		return nil
	}
	return f.adapter
}

// SurfaceFormat implements gpucontext.DeviceProvider. A compute framework is
// headless, so it is always undefined.
func (f *Framework) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo implements gpucontext.DeviceProvider.
func (f *Framework) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: f.info.Name,
		Type: adapterTypeFromDeviceType(f.info.DeviceType),
	}
}

// Poll processes finished GPU work without blocking and resolves pending
// readbacks. It reports whether all submitted work has completed.
func (f *Framework) Poll() bool {
	f.pollMu.RLock()
	defer f.pollMu.RUnlock()
	if f.closed.Load() {
		return true
	}
	return f.device.Poll(wgpu.PollPoll)
}

// BlockingPoll waits until all submitted work has completed. After Close it
// returns immediately.
func (f *Framework) BlockingPoll() {
	f.pollMu.RLock()
	defer f.pollMu.RUnlock()
	if f.closed.Load() {
		return
	}
	f.device.Poll(wgpu.PollWait)
}

// Close releases the framework's cached shaders and, when the framework
// created them, the device, adapter and instance. Close is idempotent.
func (f *Framework) Close() error {
	if f.closed.Swap(true) {
		return nil
	}

	f.shaders.Purge()

	if !f.owned {
		Logger().Info("gpgpu: framework closed (borrowed device kept)")
		return nil
	}

	// Polls still running finish before the device goes away.
	f.pollMu.Lock()
	defer f.pollMu.Unlock()

	err := f.device.WaitIdle()
	f.device.Release()
	if f.adapter != nil {
		f.adapter.Release()
	}
	if f.instance != nil {
		f.instance.Release()
	}
	Logger().Info("gpgpu: framework closed")
	if err != nil {
		return fmt.Errorf("gpgpu: wait idle: %w", err)
	}
	return nil
}

func (f *Framework) checkOpen() error {
	if f == nil || f.closed.Load() {
		return ErrClosed
	}
	return nil
}

// label prefixes name with the framework label.
func (f *Framework) label(name string) string {
	return f.opts.label + ":" + name
}

// submit records commands with record and submits them as one command buffer.
func (f *Framework) submit(label string, record func(enc *wgpu.CommandEncoder) error) error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	f.submitMu.Lock()
	defer f.submitMu.Unlock()

	enc, err := f.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: f.label(label)})
	if err != nil {
		return fmt.Errorf("gpgpu: create command encoder: %w", err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		return err
	}
	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("gpgpu: finish %s: %w", label, err)
	}
	if _, err := f.queue.Submit(cmd); err != nil {
		return fmt.Errorf("gpgpu: submit %s: %w", label, err)
	}
	return nil
}

// writeBuffer performs an immediate queue write.
func (f *Framework) writeBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	f.submitMu.Lock()
	defer f.submitMu.Unlock()
	if err := f.queue.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("gpgpu: write buffer: %w", err)
	}
	return nil
}

// writeTexture uploads tightly packed rows to the whole of a 2D texture.
func (f *Framework) writeTexture(tex *wgpu.Texture, data []byte, bytesPerRow, width, height uint32) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	f.submitMu.Lock()
	defer f.submitMu.Unlock()
	err := f.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		data,
		&wgpu.ImageDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: height},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpgpu: write texture: %w", err)
	}
	return nil
}

// createDownloadStaging creates a mappable buffer that copies land in.
func (f *Framework) createDownloadStaging(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: f.label(label + "-staging"),
		Size:  alignCopy(size),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpgpu: create staging buffer: %w", err)
	}
	return buf, nil
}

// readContext applies the framework read timeout to contexts without a deadline.
func (f *Framework) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || f.opts.readTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.opts.readTimeout)
}

// startDownload submits the copy and starts mapping the staging buffer
// without waiting.
func (f *Framework) startDownload(label string, size uint64, record func(enc *wgpu.CommandEncoder, staging *wgpu.Buffer)) (*pendingDownload, error) {
	staging, err := f.createDownloadStaging(label, size)
	if err != nil {
		return nil, err
	}

	err = f.submit(label+"-readback", func(enc *wgpu.CommandEncoder) error {
		record(enc, staging)
		return nil
	})
	if err != nil {
		staging.Release()
		return nil, err
	}

	pending, err := staging.MapAsync(wgpu.MapModeRead, 0, staging.Size())
	if err != nil {
		staging.Release()
		return nil, fmt.Errorf("gpgpu: map staging buffer: %w", err)
	}

	Logger().Debug("gpgpu: readback started", "label", label, "bytes", size)
	return &pendingDownload{fw: f, staging: staging, pending: pending, size: size}, nil
}

// pendingDownload is a staging buffer whose mapping is in flight.
type pendingDownload struct {
	fw      *Framework
	staging *wgpu.Buffer
	pending *wgpu.MapPending
	size    uint64

	mu   sync.Mutex
	done bool
	data []byte
	err  error
}

// ready reports whether the mapping resolved, without blocking.
func (p *pendingDownload) ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return true
	}
	resolved, err := p.pending.Status()
	if !resolved {
		return false
	}
	p.finish(err)
	return true
}

// wait drives the device until the mapping resolves or ctx is done.
func (p *pendingDownload) wait(ctx context.Context) ([]byte, error) {
	ctx, cancel := p.fw.readContext(ctx)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return p.data, p.err
	}

	p.fw.Poll()
	if resolved, err := p.pending.Status(); resolved {
		p.finish(err)
		return p.data, p.err
	}

	// BlockingPoll advances the fence while Wait selects on ctx. It is a
	// no-op once the framework is closed.
	go p.fw.BlockingPoll()
	if err := p.pending.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// The map stays pending; the caller may retry.
			return nil, fmt.Errorf("gpgpu: readback: %w", err)
		}
		p.finish(err)
		return nil, p.err
	}
	p.finish(nil)
	return p.data, p.err
}

// collect is wait for callers that do not keep p: a download still pending
// when ctx ends is discarded so its staging buffer is freed.
func (p *pendingDownload) collect(ctx context.Context) ([]byte, error) {
	data, err := p.wait(ctx)
	if err != nil {
		p.discard()
	}
	return data, err
}

// finish copies the mapped bytes out and releases the staging buffer.
// Caller must hold p.mu.
func (p *pendingDownload) finish(mapErr error) {
	p.done = true
	defer p.staging.Release()
	p.pending.Release()

	if mapErr != nil {
		p.err = fmt.Errorf("gpgpu: map staging buffer: %w", mapErr)
		return
	}

	rng, err := p.staging.MappedRange(0, p.staging.Size())
	if err != nil {
		p.err = fmt.Errorf("gpgpu: mapped range: %w", err)
		_ = p.staging.Unmap()
		return
	}
	p.data = make([]byte, p.size)
	copy(p.data, rng.Bytes())
	rng.Release()
	if err := p.staging.Unmap(); err != nil {
		Logger().Warn("gpgpu: unmap staging buffer", "err", err)
	}
}

// discard abandons a download whose result is no longer wanted.
func (p *pendingDownload) discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.err = ErrReleased
	p.pending.Release()
	_ = p.staging.Unmap()
	p.staging.Release()
}

func adapterTypeFromDeviceType(t wgpu.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

func deviceTypeFromAdapterType(t gpucontext.AdapterType) wgpu.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}
