package store

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"
)

// Firebase is a Store backed by the Realtime Database.
type Firebase struct {
	client *db.Client
}

// NewFirebase wraps an initialised Realtime Database client.
func NewFirebase(client *db.Client) *Firebase {
	return &Firebase{client: client}
}

// Get implements Reader. A missing path decodes JSON null into nil.
func (f *Firebase) Get(ctx context.Context, path string) (any, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	var v any
	if err := f.client.NewRef(path).Get(ctx, &v); err != nil {
		return nil, unavailable("get", path, err)
	}
	return prune(v), nil
}

// Query implements Reader using an indexed orderByChild/equalTo query. The
// database rules must declare an index on orderByChild for this path.
func (f *Firebase) Query(ctx context.Context, path, orderByChild string, equalTo any) ([]Node, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	results, err := f.client.NewRef(path).
		OrderByChild(orderByChild).
		EqualTo(equalTo).
		GetOrdered(ctx)
	if err != nil {
		return nil, unavailable("query", path, err)
	}

	nodes := make([]Node, 0, len(results))
	for _, r := range results {
		var v any
		if err := r.Unmarshal(&v); err != nil {
			return nil, fmt.Errorf("store: decoding %s/%s: %w", path, r.Key(), err)
		}
		nodes = append(nodes, Node{Key: r.Key(), Value: v})
	}
	// GetOrdered sorts by the child value first; restore key order.
	SortNodes(nodes)
	return nodes, nil
}

// Set implements Writer.
func (f *Firebase) Set(ctx context.Context, path string, value any) error {
	if _, err := writablePath(path); err != nil {
		return err
	}
	if value == nil {
		return f.Delete(ctx, path)
	}
	if err := f.client.NewRef(path).Set(ctx, value); err != nil {
		return unavailable("set", path, err)
	}
	return nil
}

// Delete implements Writer.
func (f *Firebase) Delete(ctx context.Context, path string) error {
	if _, err := writablePath(path); err != nil {
		return err
	}
	if err := f.client.NewRef(path).Delete(ctx); err != nil {
		return unavailable("delete", path, err)
	}
	return nil
}

// HealthCheck implements HealthChecker by reading the first doorbell key.
func (f *Firebase) HealthCheck(ctx context.Context) error {
	var v any
	if err := f.client.NewRef("doorbells").OrderByKey().LimitToFirst(1).Get(ctx, &v); err != nil {
		return unavailable("health", "doorbells", err)
	}
	return nil
}
