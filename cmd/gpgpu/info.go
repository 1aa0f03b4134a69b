package main

import (
	"text/tabwriter"
)

func runInfo(e *env, args []string) error {
	fs := e.newFlagSet("info", "")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	fw, err := e.framework()
	if err != nil {
		return err
	}
	defer fw.Close()

	info := fw.Info()
	l := fw.Limits()

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	e.p.Fprintf(tw, "Adapter:\t%s\n", info.Name)
	e.p.Fprintf(tw, "Vendor:\t%s (%#04x)\n", info.Vendor, info.VendorID)
	e.p.Fprintf(tw, "Device type:\t%s\n", info.DeviceType)
	e.p.Fprintf(tw, "Backend:\t%s\n", info.Backend)
	if info.Driver != "" {
		e.p.Fprintf(tw, "Driver:\t%s %s\n", info.Driver, info.DriverInfo)
	}
	e.p.Fprintf(tw, "\t\n")
	e.p.Fprintf(tw, "Max bind groups:\t%d\n", l.MaxBindGroups)
	e.p.Fprintf(tw, "Max bindings per group:\t%d\n", l.MaxBindingsPerBindGroup)
	e.p.Fprintf(tw, "Max storage buffer binding:\t%d bytes\n", l.MaxStorageBufferBindingSize)
	e.p.Fprintf(tw, "Max uniform buffer binding:\t%d bytes\n", l.MaxUniformBufferBindingSize)
	e.p.Fprintf(tw, "Max texture size 2D:\t%d\n", l.MaxTextureDimension2D)
	e.p.Fprintf(tw, "Max workgroup size:\t%d x %d x %d\n",
		l.MaxComputeWorkgroupSizeX, l.MaxComputeWorkgroupSizeY, l.MaxComputeWorkgroupSizeZ)
	e.p.Fprintf(tw, "Max invocations per workgroup:\t%d\n", l.MaxComputeInvocationsPerWorkgroup)
	e.p.Fprintf(tw, "Max workgroups per dimension:\t%d\n", l.MaxComputeWorkgroupsPerDimension)
	e.p.Fprintf(tw, "Max workgroup storage:\t%d bytes\n", l.MaxComputeWorkgroupStorageSize)
	return tw.Flush()
}
