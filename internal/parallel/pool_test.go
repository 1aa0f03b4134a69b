package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d (GOMAXPROCS)", n, got, want)
		}
		pool.Close()
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]Task, 100)
	for i := range tasks {
		tasks[i] = func() error {
			counter.Add(1)
			return nil
		}
	}

	if err := pool.ExecuteAll(tasks); err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestWorkerPool_ExecuteAll_Errors(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	errOdd := errors.New("odd")
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = func() error {
			if i%2 == 1 {
				return errOdd
			}
			return nil
		}
	}

	err := pool.ExecuteAll(tasks)
	if !errors.Is(err, errOdd) {
		t.Fatalf("ExecuteAll() error = %v, want errOdd", err)
	}
	msg := err.Error()
	for _, want := range []string{"task 1", "task 3", "task 5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
	if strings.Contains(msg, "task 0") {
		t.Errorf("error %q mentions a successful task", msg)
	}
	if i1, i3 := strings.Index(msg, "task 1"), strings.Index(msg, "task 3"); i1 > i3 {
		t.Errorf("errors not in task order: %q", msg)
	}
}

func TestWorkerPool_ExecuteAll_Panic(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	err := pool.ExecuteAll([]Task{
		func() error { panic("boom") },
		func() error { return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("ExecuteAll() error = %v, want panic reported", err)
	}
	if !pool.IsRunning() {
		t.Error("pool should survive a panicking task")
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if err := pool.ExecuteAll(nil); err != nil {
		t.Errorf("ExecuteAll(nil) = %v", err)
	}
	if err := pool.ExecuteAll([]Task{nil, nil}); err != nil {
		t.Errorf("ExecuteAll(nil tasks) = %v", err)
	}
}

// =============================================================================
// Submit Tests
// =============================================================================

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var executed atomic.Bool
	if err := <-pool.Submit(func() error {
		executed.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !executed.Load() {
		t.Error("submitted task was not executed")
	}

	errWant := errors.New("failed")
	if err := <-pool.Submit(func() error { return errWant }); !errors.Is(err, errWant) {
		t.Errorf("Submit() error = %v, want %v", err, errWant)
	}
}

func TestWorkerPool_Submit_Nil(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	if err, ok := <-pool.Submit(nil); ok || err != nil {
		t.Errorf("Submit(nil) = (%v, %v), want closed channel", err, ok)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
}

func TestWorkerPool_OperationsAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	ran := false
	task := func() error {
		ran = true
		return nil
	}
	if err := pool.ExecuteAll([]Task{task}); !errors.Is(err, ErrClosed) {
		t.Errorf("ExecuteAll after Close = %v, want ErrClosed", err)
	}
	if err := <-pool.Submit(task); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close = %v, want ErrClosed", err)
	}
	if ran {
		t.Error("task ran on a closed pool")
	}
}

// =============================================================================
// Scheduling Tests
// =============================================================================

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	done := make(chan error, 8)
	for range 8 {
		go func() {
			tasks := make([]Task, 50)
			for i := range tasks {
				tasks[i] = func() error {
					counter.Add(1)
					return nil
				}
			}
			done <- pool.ExecuteAll(tasks)
		}()
	}
	for range 8 {
		if err := <-done; err != nil {
			t.Errorf("ExecuteAll() error = %v", err)
		}
	}
	if counter.Load() != 400 {
		t.Errorf("counter = %d, want 400", counter.Load())
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	tasks := make([]Task, 16)
	for i := range tasks {
		tasks[i] = func() error {
			if i%4 == 0 {
				time.Sleep(10 * time.Millisecond)
			}
			return nil
		}
	}

	start := time.Now()
	if err := pool.ExecuteAll(tasks); err != nil {
		t.Fatal(err)
	}
	t.Logf("Elapsed time: %v (work stealing should help)", time.Since(start))
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for range 5 {
		pool := NewWorkerPool(4)
		tasks := make([]Task, 100)
		for j := range tasks {
			tasks[j] = func() error { return nil }
		}
		_ = pool.ExecuteAll(tasks)
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	if final := runtime.NumGoroutine(); final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}

// =============================================================================
// Chunk and Map Tests
// =============================================================================

func TestSplit(t *testing.T) {
	tests := []struct {
		n, parts int
		want     []Chunk
	}{
		{0, 4, nil},
		{-1, 4, nil},
		{3, 0, []Chunk{{0, 3}}},
		{3, 8, []Chunk{{0, 1}, {1, 2}, {2, 3}}},
		{10, 3, []Chunk{{0, 4}, {4, 7}, {7, 10}}},
		{8, 4, []Chunk{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
	}
	for _, tt := range tests {
		if got := Split(tt.n, tt.parts); !slices.Equal(got, tt.want) {
			t.Errorf("Split(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
		}
	}
}

func TestWorkerPool_ForEachChunk(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	data := make([]int, 1000)
	err := pool.ForEachChunk(len(data), func(c Chunk) error {
		for i := c.Start; i < c.End; i++ {
			data[i] = i * 2
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range data {
		if v != i*2 {
			t.Fatalf("data[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestMap(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	errNeg := errors.New("negative")
	got, err := Map(pool, []int{1, -2, 3}, func(_ int, v int) (int, error) {
		if v < 0 {
			return 0, errNeg
		}
		return v * v, nil
	})
	if !errors.Is(err, errNeg) {
		t.Errorf("Map() error = %v, want errNeg", err)
	}
	if want := []int{1, 0, 9}; !slices.Equal(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkWorkerPool_ExecuteAll(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("tasks=%d", n), func(b *testing.B) {
			pool := NewWorkerPool(0)
			defer pool.Close()

			tasks := make([]Task, n)
			for i := range tasks {
				tasks[i] = func() error { return nil }
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pool.ExecuteAll(tasks)
			}
		})
	}
}

func BenchmarkWorkerPool_Submit(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	task := func() error { return nil }
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		<-pool.Submit(task)
	}
}
