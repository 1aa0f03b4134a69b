package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpgpu"
	"github.com/gogpu/gpgpu/internal/parallel"
)

func runVecmul(e *env, args []string) error {
	fs := e.newFlagSet("vecmul", "[-n N] [-workers W]")
	var (
		n       = fs.Int("n", 1<<20, "vector length")
		workers = fs.Int("workers", 0, "CPU workers for the reference check (default: GOMAXPROCS)")
	)
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if *n <= 0 {
		return errors.New("-n must be positive")
	}

	fw, err := e.framework()
	if err != nil {
		return err
	}
	defer fw.Close()

	a, b := make([]uint32, *n), make([]uint32, *n)
	for i := range a {
		a[i], b[i] = uint32(i), uint32(i%7+1)
	}

	start := time.Now()
	got, err := multiply(fw, a, b)
	if err != nil {
		return err
	}
	gpuTime := time.Since(start)

	pool := parallel.NewWorkerPool(*workers)
	defer pool.Close()
	start = time.Now()
	err = pool.ForEachChunk(len(got), func(c parallel.Chunk) error {
		for i := c.Start; i < c.End; i++ {
			if want := a[i] * b[i]; got[i] != want {
				return fmt.Errorf("c[%d] = %d, want %d", i, got[i], want)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.p.Fprintf(e.stdout, "multiplied %d elements on %s in %v, verified on %d CPU workers in %v\n",
		*n, fw.Info().Name, gpuTime.Round(time.Microsecond), pool.Workers(), time.Since(start).Round(time.Microsecond))
	return nil
}

// multiply runs the bundled mult kernel on a and b.
func multiply(fw *gpgpu.Framework, a, b []uint32) ([]uint32, error) {
	bufA, err := gpgpu.BufferFromSlice(fw, a)
	if err != nil {
		return nil, err
	}
	defer bufA.Release()
	bufB, err := gpgpu.BufferFromSlice(fw, b)
	if err != nil {
		return nil, err
	}
	defer bufB.Release()
	bufC, err := gpgpu.NewBuffer[uint32](fw, len(a))
	if err != nil {
		return nil, err
	}
	defer bufC.Release()
	count, err := gpgpu.UniformBufferFromSlice(fw, []uint32{uint32(len(a))})
	if err != nil {
		return nil, err
	}
	defer count.Release()

	shader, err := fw.Shader("mult")
	if err != nil {
		return nil, err
	}
	set := gpgpu.NewDescriptorSet().
		BindBuffer(bufA, gpgpu.ReadOnly, 0).
		BindBuffer(bufB, gpgpu.ReadOnly, 1).
		BindBuffer(bufC, gpgpu.ReadWrite, 2).
		BindUniformBuffer(count, 3)
	kernel, err := gpgpu.NewKernel(fw, gpgpu.NewProgram(shader, "main").AddDescriptorSet(set))
	if err != nil {
		return nil, err
	}
	defer kernel.Release()

	if err := kernel.EnqueueFor(uint32(len(a))); err != nil {
		return nil, err
	}
	return bufC.Read(context.Background())
}
