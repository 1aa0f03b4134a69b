// Package cache provides a generic LRU cache with an eviction hook.
//
// gpgpu keeps one compiled shader module per bundled shader name in a
// Cache and releases modules from the hook when they fall out of it or the
// framework closes.
//
//	c := cache.New[string, *Module](64, func(name string, m *Module) {
//		m.Release()
//	})
//	m, err := c.GetOrCreate("mult", compile)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
// The eviction hook runs outside the cache lock and may call back into the
// cache.
package cache
