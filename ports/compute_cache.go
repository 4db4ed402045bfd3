package ports

import "context"

// ComputeFunc produces the encoded value for a cache key.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// ComputeCachePort memoizes derived data. Keys are stable across processes
// for identical (run, parameters).
type ComputeCachePort interface {
	// GetOrCompute returns the stored value for key or computes, stores and returns it.
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc) ([]byte, error)

	// Invalidate drops key so that the next GetOrCompute recomputes it.
	Invalidate(ctx context.Context, key string) error
}
