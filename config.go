// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpgpu

import (
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/wgpu"
)

// Environment variables read by NewFramework when the corresponding option
// is not given.
const (
	// EnvBackend selects GPU backends: a comma separated list of
	// vulkan, metal, dx12, gl, primary, all.
	EnvBackend = "WGPU_BACKEND"

	// EnvPowerPreference selects the adapter: low, high or none.
	EnvPowerPreference = "WGPU_POWER_PREF"
)

// ParseBackends parses a backend list such as "vulkan,gl".
// Names are case-insensitive. An empty string yields wgpu.BackendsPrimary.
func ParseBackends(s string) (wgpu.Backends, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return wgpu.BackendsPrimary, nil
	}

	var backends wgpu.Backends
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "vulkan", "vk":
			backends |= wgpu.BackendsVulkan
		case "metal", "mtl":
			backends |= wgpu.BackendsMetal
		case "dx12", "d3d12":
			backends |= wgpu.BackendsDX12
		case "gl", "gles", "opengl":
			backends |= wgpu.BackendsGL
		case "primary":
			backends |= wgpu.BackendsPrimary
		case "all":
			backends |= wgpu.BackendsAll
		case "":
		default:
			return 0, fmt.Errorf("gpgpu: unknown backend %q", name)
		}
	}
	if backends == 0 {
		return wgpu.BackendsPrimary, nil
	}
	return backends, nil
}

// ParsePowerPreference parses "low", "high" or "none".
// An empty string yields wgpu.PowerPreferenceHighPerformance.
func ParsePowerPreference(s string) (wgpu.PowerPreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high", "high-performance", "discrete":
		return wgpu.PowerPreferenceHighPerformance, nil
	case "low", "low-power", "integrated":
		return wgpu.PowerPreferenceLowPower, nil
	case "none":
		return wgpu.PowerPreferenceNone, nil
	default:
		return 0, fmt.Errorf("gpgpu: unknown power preference %q", s)
	}
}

// applyEnv fills unset options from the environment.
// Invalid values are logged and ignored.
func (o *frameworkOptions) applyEnv(getenv func(string) string) {
	if !o.backendsSet {
		if v := getenv(EnvBackend); v != "" {
			b, err := ParseBackends(v)
			if err != nil {
				Logger().Warn("gpgpu: ignoring "+EnvBackend, "value", v, "err", err)
			} else {
				o.backends = b
			}
		}
	}
	if !o.powerSet {
		if v := getenv(EnvPowerPreference); v != "" {
			p, err := ParsePowerPreference(v)
			if err != nil {
				Logger().Warn("gpgpu: ignoring "+EnvPowerPreference, "value", v, "err", err)
			} else {
				o.power = p
			}
		}
	}
}

func lookupEnv(key string) string { return os.Getenv(key) }
