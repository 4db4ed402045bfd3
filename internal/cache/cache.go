// Package cache implements the compute-or-load cache for derived run data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gocuts/domain/core"
	"gocuts/internal/errors"
	"gocuts/ports"
)

// Key joins a namespace, a run and parameters into a stable key such as
// "Chi2/392/x" or "BeamInterruptions/Ranges/392/20_20".
func Key(namespace string, run core.RunID, params ...interface{}) string {
	parts := []string{namespace, run.String()}
	for _, p := range params {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, "/")
}

// Load returns the cached value for key, computing and storing it with
// compute on a miss. Values are stored as JSON. Errors returned by compute
// pass through unchanged.
func Load[T any](ctx context.Context, c ports.ComputeCachePort, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var value T
	data, err := c.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, errors.CacheError(key, err)
		}
		return encoded, nil
	})
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, errors.CacheError(key, err)
	}
	return value, nil
}
