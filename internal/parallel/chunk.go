package parallel

// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start, End int
}

// Len returns the number of indices in the chunk.
func (c Chunk) Len() int { return c.End - c.Start }

// Split divides n indices into at most parts contiguous chunks of nearly
// equal size. It returns nil for n <= 0.
func Split(n, parts int) []Chunk {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)

	chunks := make([]Chunk, parts)
	size, rem := n/parts, n%parts
	start := 0
	for i := range chunks {
		end := start + size
		if i < rem {
			end++
		}
		chunks[i] = Chunk{Start: start, End: end}
		start = end
	}
	return chunks
}

// ForEachChunk splits n indices over the pool's workers and runs fn on
// every chunk, returning the joined errors.
func (p *WorkerPool) ForEachChunk(n int, fn func(Chunk) error) error {
	chunks := Split(n, p.workers)
	tasks := make([]Task, len(chunks))
	for i, c := range chunks {
		tasks[i] = func() error { return fn(c) }
	}
	return p.ExecuteAll(tasks)
}

// Map applies fn to every item on the pool and returns the results in item
// order, with the joined errors of the failed calls.
func Map[T, R any](p *WorkerPool, items []T, fn func(int, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	tasks := make([]Task, len(items))
	for i, item := range items {
		tasks[i] = func() error {
			r, err := fn(i, item)
			out[i] = r
			return err
		}
	}
	return out, p.ExecuteAll(tasks)
}
