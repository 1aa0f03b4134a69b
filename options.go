package gpgpu

import (
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// FrameworkOption configures a Framework during creation.
//
// Example:
//
//	// Defaults: primary backends, high-performance adapter
//	fw, err := gpgpu.NewFramework()
//
//	// Force the GL backend and a low-power adapter
//	fw, err := gpgpu.NewFramework(
//		gpgpu.WithBackends(wgpu.BackendsGL),
//		gpgpu.WithPowerPreference(wgpu.PowerPreferenceLowPower),
//	)
type FrameworkOption func(*frameworkOptions)

// frameworkOptions holds optional configuration for Framework creation.
type frameworkOptions struct {
	backends      wgpu.Backends
	backendsSet   bool
	power         wgpu.PowerPreference
	powerSet      bool
	forceFallback bool
	limits        *wgpu.Limits
	label         string
	readTimeout   time.Duration
	cacheSize     int
	logger        *slog.Logger
}

// Defaults applied by NewFramework.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultShaderCacheSize = 64
)

func defaultFrameworkOptions() frameworkOptions {
	return frameworkOptions{
		backends:    wgpu.BackendsPrimary,
		power:       wgpu.PowerPreferenceHighPerformance,
		label:       "gpgpu",
		readTimeout: DefaultReadTimeout,
		cacheSize:   DefaultShaderCacheSize,
	}
}

// WithBackends restricts the backends the instance may use.
// It takes precedence over the WGPU_BACKEND environment variable.
func WithBackends(b wgpu.Backends) FrameworkOption {
	return func(o *frameworkOptions) {
		o.backends = b
		o.backendsSet = true
	}
}

// WithPowerPreference selects between integrated and discrete adapters.
// It takes precedence over the WGPU_POWER_PREF environment variable.
func WithPowerPreference(p wgpu.PowerPreference) FrameworkOption {
	return func(o *frameworkOptions) {
		o.power = p
		o.powerSet = true
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
func WithForceFallbackAdapter() FrameworkOption {
	return func(o *frameworkOptions) {
		o.forceFallback = true
	}
}

// WithLimits requests specific device limits.
// Without it the device is created with the adapter's limits.
func WithLimits(l wgpu.Limits) FrameworkOption {
	return func(o *frameworkOptions) {
		o.limits = &l
	}
}

// WithDownlevelLimits requests the conservative downlevel limit set,
// which every adapter supports.
func WithDownlevelLimits() FrameworkOption {
	return func(o *frameworkOptions) {
		l := gputypes.DownlevelLimits()
		o.limits = &l
	}
}

// WithLabel sets the debug label prefix used for GPU objects.
func WithLabel(label string) FrameworkOption {
	return func(o *frameworkOptions) {
		if label != "" {
			o.label = label
		}
	}
}

// WithReadTimeout bounds blocking reads whose context has no deadline.
// A zero or negative duration disables the bound.
func WithReadTimeout(d time.Duration) FrameworkOption {
	return func(o *frameworkOptions) {
		o.readTimeout = d
	}
}

// WithShaderCacheSize sets how many bundled shader modules the framework
// keeps compiled. Zero means unlimited.
func WithShaderCacheSize(n int) FrameworkOption {
	return func(o *frameworkOptions) {
		if n >= 0 {
			o.cacheSize = n
		}
	}
}

// WithLogger installs l as the package logger, see SetLogger.
func WithLogger(l *slog.Logger) FrameworkOption {
	return func(o *frameworkOptions) {
		o.logger = l
	}
}
