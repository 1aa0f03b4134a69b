package gpgpu

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// copyAlignment is the byte alignment of buffer copies and queue writes.
const copyAlignment = 4

// bytesPerRowAlignment is the row pitch alignment of texture-to-buffer copies.
const bytesPerRowAlignment = 256

// alignDown rounds n down to the copy alignment.
func alignDown(n uint64) uint64 {
	return n &^ (copyAlignment - 1)
}

// alignCopy rounds n up to the copy alignment.
func alignCopy(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}

// alignRow rounds a row pitch up to the texture copy alignment.
func alignRow(n uint32) uint32 {
	return (n + bytesPerRowAlignment - 1) &^ (bytesPerRowAlignment - 1)
}

// podCache memoizes checkPod per element type.
var podCache sync.Map // reflect.Type -> error

// checkPod reports whether T can be copied to the GPU byte for byte:
// no pointers, slices, maps, strings, interfaces, channels or funcs.
func checkPod[T any]() error {
	t := reflect.TypeFor[T]()
	if v, ok := podCache.Load(t); ok {
		if v == nil {
			return nil
		}
		return v.(error)
	}
	err := podKind(t)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNotPod, err)
		podCache.Store(t, err)
		return err
	}
	podCache.Store(t, nil)
	return nil
}

func podKind(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return podKind(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if err := podKind(t.Field(i).Type); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
		return nil
	default:
		// int, uint and uintptr are platform sized and have no WGSL equivalent.
		return fmt.Errorf("%s has kind %s", t, t.Kind())
	}
}

// sizeOf returns the byte size of T.
func sizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// asBytes reinterprets a POD slice as bytes without copying.
func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(sizeOf[T]()))
}

// fromBytes copies b into a new slice of n elements of T.
// b must hold at least n*sizeof(T) bytes.
func fromBytes[T any](b []byte, n int) []T {
	out := make([]T, n)
	copy(asBytes(out), b)
	return out
}
