package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gogpu/gpgpu"
	"github.com/gogpu/gpgpu/shaders"
)

func runReflect(e *env, args []string) error {
	flags := e.newFlagSet("reflect", "<file.wgsl|bundled name>")
	if err := parseArgs(flags, args, 1); err != nil {
		return err
	}

	src, err := readShader(flags.Arg(0))
	if err != nil {
		return err
	}
	r, err := gpgpu.Reflect(src)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, "Entry points:")
	for _, ep := range r.EntryPoints {
		e.p.Fprintf(e.stdout, "  %s  workgroup %v  (%d invocations)\n", ep.Name, ep.Workgroup, ep.Invocations())
	}
	fmt.Fprintln(e.stdout, "Bindings:")
	for _, b := range r.Bindings {
		fmt.Fprintf(e.stdout, "  %s", b)
		switch b.Kind {
		case gpgpu.KindStorageImage:
			fmt.Fprintf(e.stdout, " (%s, %s)", b.StorageFormat, b.StorageAccess)
		case gpgpu.KindSampledImage:
			fmt.Fprintf(e.stdout, " (%s)", b.SampleKind)
		}
		fmt.Fprintln(e.stdout)
	}
	return nil
}

// readShader reads a WGSL file, falling back to a bundled shader when no
// file of that name exists.
func readShader(arg string) (string, error) {
	data, err := os.ReadFile(arg) //nolint:gosec // path is user-provided intentionally
	if err == nil {
		return string(data), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if src, ok := shaders.Source(arg); ok {
			return src, nil
		}
	}
	return "", fmt.Errorf("read shader: %w", err)
}
