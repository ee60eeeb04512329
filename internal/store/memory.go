package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
//
// Values are normalised through JSON on the way in and deep-copied on the way
// out, so callers see the same shapes as from the Realtime Database and can
// never mutate stored state through a returned map.
type Memory struct {
	mu   sync.RWMutex
	root map[string]any

	// failErr, when set, is returned (wrapped with ErrUnavailable) from every call.
	failErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{root: make(map[string]any)}
}

// Fail makes every subsequent call fail with err wrapped in ErrUnavailable.
// Passing nil restores normal operation.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Get implements Reader.
func (m *Memory) Get(_ context.Context, path string) (any, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return nil, unavailable("get", path, m.failErr)
	}

	v := childAt(m.root, path)
	out, err := normalize(v)
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", path, err)
	}
	return out, nil
}

// Query implements Reader.
func (m *Memory) Query(ctx context.Context, path, orderByChild string, equalTo any) ([]Node, error) {
	tree, err := m.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return filterChildren(tree, orderByChild, equalTo)
}

// Set implements Writer.
func (m *Memory) Set(_ context.Context, path string, value any) error {
	segs, err := writablePath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("store: set %q: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return unavailable("set", path, m.failErr)
	}

	if v == nil {
		m.remove(segs)
		return nil
	}

	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = v
	return nil
}

// Delete implements Writer.
func (m *Memory) Delete(_ context.Context, path string) error {
	segs, err := writablePath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return unavailable("delete", path, m.failErr)
	}
	m.remove(segs)
	return nil
}

// remove deletes segs and prunes parents left empty. Caller holds mu.
func (m *Memory) remove(segs []string) {
	parents := make([]map[string]any, 0, len(segs))
	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		parents = append(parents, node)
		child, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, segs[len(segs)-1])

	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segs[i])
		node = parents[i]
	}
}

// HealthCheck implements HealthChecker.
func (m *Memory) HealthCheck(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return unavailable("health", "", m.failErr)
	}
	return nil
}

// validatePath checks every segment of path.
func validatePath(path string) error {
	for _, seg := range splitPath(path) {
		if err := ValidateKey(seg); err != nil {
			return err
		}
	}
	return nil
}
