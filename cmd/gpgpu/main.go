// Command gpgpu inspects GPU adapters and WGSL compute shaders and runs the
// bundled kernels.
//
// Usage:
//
//	gpgpu [-backend list] [-power low|high] [-v] <command> [arguments]
//
// Commands:
//
//	info                     print the selected adapter and its limits
//	shaders                  list the bundled shaders
//	reflect <file|name>      print entry points and bindings of a shader
//	compile [-o out] <file>  translate WGSL to SPIR-V, GLSL, HLSL or MSL
//	vecmul [-n N]            multiply two vectors on the GPU and check on the CPU
//	bench [-n N] [-kernels K] [-workers W]
//	                         enqueue kernels concurrently from a worker pool
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gpgpu"
)

// errUsage makes run print the command usage.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

var commands = []command{
	{"info", "print the selected adapter and its limits", runInfo},
	{"shaders", "list the bundled shaders", runShaders},
	{"reflect", "print entry points and bindings of a shader", runReflect},
	{"compile", "translate WGSL to SPIR-V, GLSL, HLSL or MSL", runCompile},
	{"vecmul", "multiply two vectors on the GPU and check on the CPU", runVecmul},
	{"bench", "enqueue kernels concurrently from a worker pool", runBench},
}

// env is shared by all commands.
type env struct {
	stdout, stderr io.Writer
	p              *message.Printer
	opts           []gpgpu.FrameworkOption
}

func (e *env) framework() (*gpgpu.Framework, error) {
	return gpgpu.NewFramework(e.opts...)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gpgpu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		backend = fs.String("backend", "", "GPU backends, e.g. vulkan,gl (default: "+gpgpu.EnvBackend+" or primary)")
		power   = fs.String("power", "", "adapter power preference: low, high or none")
		verbose = fs.Bool("v", false, "log debug messages")
		version = fs.Bool("version", false, "print version and exit")
	)
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, "gpgpu", gpgpu.Version)
		return 0
	}

	e := &env{stdout: stdout, stderr: stderr, p: message.NewPrinter(language.English)}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	gpgpu.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if *backend != "" {
		b, err := gpgpu.ParseBackends(*backend)
		if err != nil {
			fmt.Fprintln(stderr, "gpgpu:", err)
			return 2
		}
		e.opts = append(e.opts, gpgpu.WithBackends(b))
	}
	if *power != "" {
		p, err := gpgpu.ParsePowerPreference(*power)
		if err != nil {
			fmt.Fprintln(stderr, "gpgpu:", err)
			return 2
		}
		e.opts = append(e.opts, gpgpu.WithPowerPreference(p))
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		fmt.Fprintf(stderr, "gpgpu: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	if err := commands[i].run(e, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "gpgpu %s: %v\n", name, err)
		return 1
	}
	return 0
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: gpgpu [options] <command> [arguments]\n\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a flag set for a subcommand that reports errors to the
// command's stderr.
func (e *env) newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: gpgpu %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses a subcommand's flags and checks that nargs positional
// arguments remain, printing the usage otherwise.
func parseArgs(fs *flag.FlagSet, args []string, nargs int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != nargs {
		fs.Usage()
		return errUsage
	}
	return nil
}
