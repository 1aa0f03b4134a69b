package gpgpu

import "context"

// Readback is the pending result of an asynchronous read.
//
// The result resolves when the device is polled: by Framework.Poll,
// Framework.BlockingPoll, a later submission, or Wait itself.
//
//	rb, _ := buf.ReadAsync()
//	for !rb.Ready() {
//		doOtherWork()
//		fw.Poll()
//	}
//	out, err := rb.Wait(ctx)
type Readback[R any] struct {
	p      *pendingDownload
	decode func([]byte) R
}

func newReadback[R any](p *pendingDownload, decode func([]byte) R) *Readback[R] {
	return &Readback[R]{p: p, decode: decode}
}

// Ready reports whether Wait would return without blocking.
func (r *Readback[R]) Ready() bool {
	return r.p.ready()
}

// Wait blocks until the data is available or ctx is done. It may be called
// again after a context error.
func (r *Readback[R]) Wait(ctx context.Context) (R, error) {
	data, err := r.p.wait(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	return r.decode(data), nil
}

// Discard abandons the read and frees its staging memory.
func (r *Readback[R]) Discard() {
	r.p.discard()
}
