package gpgpu

import (
	"testing"

	"github.com/gogpu/wgpu"
)

func TestParseBackends(t *testing.T) {
	tests := []struct {
		in      string
		want    wgpu.Backends
		wantErr bool
	}{
		{"", wgpu.BackendsPrimary, false},
		{"  ", wgpu.BackendsPrimary, false},
		{"vulkan", wgpu.BackendsVulkan, false},
		{"VK", wgpu.BackendsVulkan, false},
		{"metal", wgpu.BackendsMetal, false},
		{"dx12", wgpu.BackendsDX12, false},
		{"gles", wgpu.BackendsGL, false},
		{"vulkan, gl", wgpu.BackendsVulkan | wgpu.BackendsGL, false},
		{"all", wgpu.BackendsAll, false},
		{",", wgpu.BackendsPrimary, false},
		{"directx9", 0, true},
		{"vulkan,bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackends(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackends(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBackends(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePowerPreference(t *testing.T) {
	tests := []struct {
		in      string
		want    wgpu.PowerPreference
		wantErr bool
	}{
		{"", wgpu.PowerPreferenceHighPerformance, false},
		{"high", wgpu.PowerPreferenceHighPerformance, false},
		{"Discrete", wgpu.PowerPreferenceHighPerformance, false},
		{"low", wgpu.PowerPreferenceLowPower, false},
		{"integrated", wgpu.PowerPreferenceLowPower, false},
		{"none", wgpu.PowerPreferenceNone, false},
		{"turbo", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePowerPreference(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePowerPreference(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePowerPreference(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	t.Run("from environment", func(t *testing.T) {
		o := defaultFrameworkOptions()
		o.applyEnv(env(map[string]string{EnvBackend: "gl", EnvPowerPreference: "low"}))
		if o.backends != wgpu.BackendsGL {
			t.Errorf("backends = %v, want GL", o.backends)
		}
		if o.power != wgpu.PowerPreferenceLowPower {
			t.Errorf("power = %v, want LowPower", o.power)
		}
	})

	t.Run("options win", func(t *testing.T) {
		o := defaultFrameworkOptions()
		WithBackends(wgpu.BackendsVulkan)(&o)
		WithPowerPreference(wgpu.PowerPreferenceNone)(&o)
		o.applyEnv(env(map[string]string{EnvBackend: "gl", EnvPowerPreference: "low"}))
		if o.backends != wgpu.BackendsVulkan {
			t.Errorf("backends = %v, want Vulkan", o.backends)
		}
		if o.power != wgpu.PowerPreferenceNone {
			t.Errorf("power = %v, want None", o.power)
		}
	})

	t.Run("invalid ignored", func(t *testing.T) {
		o := defaultFrameworkOptions()
		o.applyEnv(env(map[string]string{EnvBackend: "bogus", EnvPowerPreference: "turbo"}))
		if o.backends != wgpu.BackendsPrimary {
			t.Errorf("backends = %v, want Primary", o.backends)
		}
		if o.power != wgpu.PowerPreferenceHighPerformance {
			t.Errorf("power = %v, want HighPerformance", o.power)
		}
	})
}
