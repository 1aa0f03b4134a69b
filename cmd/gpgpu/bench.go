package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpgpu"
	"github.com/gogpu/gpgpu/internal/parallel"
)

// addJob is one add kernel with its own buffers.
type addJob struct {
	a, b, c *gpgpu.GpuBuffer[float32]
	count   *gpgpu.GpuUniformBuffer[uint32]
	kernel  *gpgpu.Kernel
}

func (j *addJob) release() {
	if j.kernel != nil {
		j.kernel.Release()
	}
	for _, buf := range []*gpgpu.GpuBuffer[float32]{j.a, j.b, j.c} {
		if buf != nil {
			buf.Release()
		}
	}
	if j.count != nil {
		j.count.Release()
	}
}

func runBench(e *env, args []string) error {
	fs := e.newFlagSet("bench", "[-n N] [-kernels K] [-iters I] [-workers W]")
	var (
		n       = fs.Int("n", 1<<18, "elements per kernel")
		kernels = fs.Int("kernels", 8, "number of independent kernels")
		iters   = fs.Int("iters", 10, "dispatches per kernel")
		workers = fs.Int("workers", 0, "goroutines enqueueing kernels (default: GOMAXPROCS)")
	)
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if *n <= 0 || *kernels <= 0 || *iters <= 0 {
		return errors.New("-n, -kernels and -iters must be positive")
	}

	fw, err := e.framework()
	if err != nil {
		return err
	}
	defer fw.Close()

	pool := parallel.NewWorkerPool(*workers)
	defer pool.Close()

	shader, err := fw.Shader("add")
	if err != nil {
		return err
	}

	indices := make([]int, *kernels)
	for i := range indices {
		indices[i] = i
	}
	jobs, err := parallel.Map(pool, indices, func(_ int, k int) (*addJob, error) {
		return newAddJob(fw, shader, *n, float32(k))
	})
	defer func() {
		for _, j := range jobs {
			if j != nil {
				j.release()
			}
		}
	}()
	if err != nil {
		return err
	}

	tasks := make([]parallel.Task, 0, len(jobs)*(*iters))
	for range *iters {
		for _, j := range jobs {
			tasks = append(tasks, func() error { return j.kernel.EnqueueFor(uint32(*n)) })
		}
	}
	start := time.Now()
	if err := pool.ExecuteAll(tasks); err != nil {
		return err
	}
	enqueued := time.Since(start)
	fw.BlockingPoll()
	elapsed := time.Since(start)

	// Every job computes c = a + b with b[i] = k, so c[i] = i + k.
	results, err := parallel.Map(pool, jobs, func(k int, j *addJob) (float32, error) {
		out, err := j.c.Read(context.Background())
		if err != nil {
			return 0, err
		}
		last := len(out) - 1
		if want := float32(last) + float32(k); out[last] != want {
			return 0, fmt.Errorf("kernel %d: c[%d] = %v, want %v", k, last, out[last], want)
		}
		return out[last], nil
	})
	if err != nil {
		return err
	}

	dispatches := len(tasks)
	e.p.Fprintf(e.stdout, "%d dispatches of %d elements from %d workers\n", dispatches, *n, pool.Workers())
	e.p.Fprintf(e.stdout, "enqueue %v, complete %v, %.0f dispatches/s, %.0f elements/s\n",
		enqueued.Round(time.Microsecond), elapsed.Round(time.Microsecond),
		float64(dispatches)/elapsed.Seconds(), float64(dispatches)*float64(*n)/elapsed.Seconds())
	e.p.Fprintf(e.stdout, "checked %d kernels\n", len(results))
	return nil
}

func newAddJob(fw *gpgpu.Framework, shader *gpgpu.Shader, n int, k float32) (*addJob, error) {
	a, b := make([]float32, n), make([]float32, n)
	for i := range a {
		a[i], b[i] = float32(i), k
	}

	j := &addJob{}
	var err error
	if j.a, err = gpgpu.BufferFromSlice(fw, a); err != nil {
		return nil, err
	}
	if j.b, err = gpgpu.BufferFromSlice(fw, b); err != nil {
		j.release()
		return nil, err
	}
	if j.c, err = gpgpu.NewBuffer[float32](fw, n); err != nil {
		j.release()
		return nil, err
	}
	if j.count, err = gpgpu.UniformBufferFromSlice(fw, []uint32{uint32(n)}); err != nil {
		j.release()
		return nil, err
	}
	set := gpgpu.NewDescriptorSet().
		BindBuffer(j.a, gpgpu.ReadOnly, 0).
		BindBuffer(j.b, gpgpu.ReadOnly, 1).
		BindBuffer(j.c, gpgpu.ReadWrite, 2).
		BindUniformBuffer(j.count, 3)
	if j.kernel, err = gpgpu.NewKernel(fw, gpgpu.NewProgram(shader, "main").AddDescriptorSet(set)); err != nil {
		j.release()
		return nil, err
	}
	return j, nil
}
