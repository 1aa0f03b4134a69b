package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"
)

func runCompile(e *env, args []string) error {
	fs := e.newFlagSet("compile", "[options] <file.wgsl|bundled name>")
	var (
		output   = fs.String("o", "", "output file (default: stdout)")
		target   = fs.String("target", "spv", "output language: spv, glsl, hlsl or msl")
		entry    = fs.String("entry", "", "entry point for glsl (default: first)")
		validate = fs.Bool("validate", true, "validate IR before code generation")
		debug    = fs.Bool("debug", false, "include debug info in SPIR-V")
	)
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	src, err := readShader(fs.Arg(0))
	if err != nil {
		return err
	}
	ast, err := naga.Parse(src)
	if err != nil {
		return err
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return err
	}
	if *validate {
		if err := validateModule(module); err != nil {
			return err
		}
	}

	out, err := generate(module, *target, *entry, *debug)
	if err != nil {
		return err
	}

	if *output == "" {
		_, err := e.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(*output, out, 0o644); err != nil { //nolint:gosec // output is user-provided intentionally
		return err
	}
	e.p.Fprintf(e.stderr, "compiled %s to %s (%d bytes)\n", fs.Arg(0), *output, len(out))
	return nil
}

func validateModule(module *ir.Module) error {
	issues, err := naga.Validate(module)
	if err != nil {
		return err
	}
	errs := make([]error, len(issues))
	for i := range issues {
		errs[i] = issues[i]
	}
	return errors.Join(errs...)
}

func generate(module *ir.Module, target, entry string, debug bool) ([]byte, error) {
	switch strings.ToLower(target) {
	case "spv", "spirv":
		opts := spirv.DefaultOptions()
		opts.Version = spirv.Version1_3
		opts.Debug = debug
		return naga.GenerateSPIRV(module, opts)
	case "glsl":
		opts := glsl.DefaultOptions()
		opts.LangVersion = glsl.Version430
		opts.EntryPoint = entry
		src, _, err := glsl.Compile(module, opts)
		return []byte(src), err
	case "hlsl":
		src, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
		return []byte(src), err
	case "msl":
		src, _, err := msl.Compile(module, msl.DefaultOptions())
		return []byte(src), err
	default:
		return nil, fmt.Errorf("unknown target %q", target)
	}
}
