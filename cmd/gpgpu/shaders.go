package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/gogpu/gpgpu"
	"github.com/gogpu/gpgpu/shaders"
)

func runShaders(e *env, args []string) error {
	fs := e.newFlagSet("shaders", "")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENTRY\tWORKGROUP\tBINDINGS")
	for _, name := range shaders.Names() {
		r, err := gpgpu.Reflect(shaders.Must(name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, ep := range r.EntryPoints {
			wg := ep.Workgroup
			fmt.Fprintf(tw, "%s\t%s\t%dx%dx%d\t%d\n", name, ep.Name, wg[0], wg[1], wg[2], len(r.Bindings))
		}
	}
	return tw.Flush()
}
