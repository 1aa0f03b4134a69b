package gpgpu

import (
	"errors"
	"testing"
)

type podVec struct {
	X, Y, Z float32
	_       float32
}

type podNested struct {
	Pos   podVec
	Flags [4]uint32
}

type notPodPtr struct {
	P *float32
}

type notPodSlice struct {
	S []uint32
}

func TestCheckPod(t *testing.T) {
	tests := []struct {
		name  string
		check func() error
		ok    bool
	}{
		{"float32", checkPod[float32], true},
		{"uint32", checkPod[uint32], true},
		{"int64", checkPod[int64], true},
		{"bool", checkPod[bool], true},
		{"array", checkPod[[3]float32], true},
		{"struct", checkPod[podVec], true},
		{"nested", checkPod[podNested], true},
		{"int", checkPod[int], false},
		{"uint", checkPod[uint], false},
		{"uintptr", checkPod[uintptr], false},
		{"string", checkPod[string], false},
		{"pointer", checkPod[*float32], false},
		{"pointer field", checkPod[notPodPtr], false},
		{"slice field", checkPod[notPodSlice], false},
		{"map", checkPod[map[int32]int32], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Twice: the second call hits the cache.
			for range 2 {
				err := tt.check()
				if tt.ok && err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !tt.ok && !errors.Is(err, ErrNotPod) {
					t.Fatalf("error = %v, want ErrNotPod", err)
				}
			}
		})
	}
}

func TestAlign(t *testing.T) {
	copyTests := []struct{ in, want uint64 }{
		{0, 0}, {1, 4}, {4, 4}, {5, 8}, {12, 12}, {13, 16},
	}
	for _, tt := range copyTests {
		if got := alignCopy(tt.in); got != tt.want {
			t.Errorf("alignCopy(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := alignDown(tt.in); got > tt.in || tt.in-got >= copyAlignment || got%copyAlignment != 0 {
			t.Errorf("alignDown(%d) = %d", tt.in, got)
		}
	}

	rowTests := []struct{ in, want uint32 }{
		{0, 0}, {1, 256}, {256, 256}, {257, 512}, {4 * 100, 512},
	}
	for _, tt := range rowTests {
		if got := alignRow(tt.in); got != tt.want {
			t.Errorf("alignRow(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	in := []podVec{{1, 2, 3, 0}, {4, 5, 6, 0}}
	b := asBytes(in)
	if len(b) != 32 {
		t.Fatalf("len(asBytes) = %d, want 32", len(b))
	}
	out := fromBytes[podVec](b, len(in))
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d = %+v, want %+v", i, out[i], in[i])
		}
	}
	if asBytes[float32](nil) != nil {
		t.Error("asBytes(nil) should be nil")
	}
}

func TestSizeOf(t *testing.T) {
	if got := sizeOf[podVec](); got != 16 {
		t.Errorf("sizeOf[podVec] = %d, want 16", got)
	}
	if got := sizeOf[[3]uint16](); got != 6 {
		t.Errorf("sizeOf[[3]uint16] = %d, want 6", got)
	}
}
