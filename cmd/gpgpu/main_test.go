package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gpgpu"
)

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no command", nil, 2, "Commands:"},
		{"unknown command", []string{"frobnicate"}, 2, `unknown command "frobnicate"`},
		{"help", []string{"-h"}, 0, "Usage: gpgpu"},
		{"bad backend", []string{"-backend", "glide", "info"}, 2, "glide"},
		{"bad power", []string{"-power", "max", "info"}, 2, "max"},
		{"reflect without file", []string{"reflect"}, 2, "Usage: gpgpu reflect"},
		{"compile bad flag", []string{"compile", "-x", "mult"}, 2, "Usage: gpgpu compile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCmd(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, should contain %q", stderr, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCmd(t, "-version")
	if code != 0 || !strings.Contains(stdout, gpgpu.Version) {
		t.Errorf("exit code %d, stdout %q", code, stdout)
	}
}

func TestShadersCommand(t *testing.T) {
	code, stdout, stderr := runCmd(t, "shaders")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	for _, want := range []string{"NAME", "mult", "main", "64x1x1", "mirror", "16x16x1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output should contain %q:\n%s", want, stdout)
		}
	}
}

func TestReflectCommand(t *testing.T) {
	t.Run("bundled", func(t *testing.T) {
		code, stdout, stderr := runCmd(t, "reflect", "upscale")
		if code != 0 {
			t.Fatalf("exit code %d: %s", code, stderr)
		}
		for _, want := range []string{"main", "256 invocations", "@group(0) @binding(1) input_sampler", "@binding(2) output"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output should contain %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "k.wgsl")
		src := `@group(1) @binding(3) var<storage, read_write> data: array<u32>;
@compute @workgroup_size(8, 4)
fn fill(@builtin(global_invocation_id) id: vec3<u32>) { data[id.x] = 1u; }`
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
		code, stdout, stderr := runCmd(t, "reflect", path)
		if code != 0 {
			t.Fatalf("exit code %d: %s", code, stderr)
		}
		for _, want := range []string{"fill", "[8 4 1]", "@group(1) @binding(3) data"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output should contain %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("missing", func(t *testing.T) {
		code, _, stderr := runCmd(t, "reflect", "no-such-shader.wgsl")
		if code != 1 || !strings.Contains(stderr, "read shader") {
			t.Errorf("exit code %d, stderr %q", code, stderr)
		}
	})
}

func TestCompileCommand(t *testing.T) {
	t.Run("spirv file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "mult.spv")
		code, _, stderr := runCmd(t, "compile", "-o", out, "mult")
		if code != 0 {
			t.Fatalf("exit code %d: %s", code, stderr)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) < 20 || binary.LittleEndian.Uint32(data) != 0x07230203 {
			t.Errorf("output is not SPIR-V: % x", data[:min(len(data), 8)])
		}
	})

	for _, target := range []string{"glsl", "hlsl", "msl"} {
		t.Run(target, func(t *testing.T) {
			code, stdout, stderr := runCmd(t, "compile", "-target", target, "add")
			if code != 0 {
				t.Fatalf("exit code %d: %s", code, stderr)
			}
			if strings.TrimSpace(stdout) == "" {
				t.Error("empty output")
			}
		})
	}

	t.Run("unknown target", func(t *testing.T) {
		code, _, stderr := runCmd(t, "compile", "-target", "dxbc", "add")
		if code != 1 || !strings.Contains(stderr, `unknown target "dxbc"`) {
			t.Errorf("exit code %d, stderr %q", code, stderr)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.wgsl")
		if err := os.WriteFile(path, []byte("fn main( {"), 0o600); err != nil {
			t.Fatal(err)
		}
		if code, _, _ := runCmd(t, "compile", path); code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	})
}

func TestVecmulRejectsBadLength(t *testing.T) {
	code, _, stderr := runCmd(t, "vecmul", "-n", "0")
	if code != 1 || !strings.Contains(stderr, "-n must be positive") {
		t.Errorf("exit code %d, stderr %q", code, stderr)
	}
}
