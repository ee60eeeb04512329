package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnavailable wraps every backend failure (StoreUnavailable).
	// It is never retried inside the core.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrInvalidPath is returned for keys the Realtime Database would reject.
	ErrInvalidPath = errors.New("store: invalid path")
)

// Node is one child returned by Query.
type Node struct {
	Key   string
	Value any
}

// Reader is the read side of the store.
type Reader interface {
	// Get returns the value at path, or nil when nothing is stored there.
	Get(ctx context.Context, path string) (any, error)

	// Query returns the children of path whose value at orderByChild equals
	// equalTo, ordered by key.
	Query(ctx context.Context, path, orderByChild string, equalTo any) ([]Node, error)
}

// Writer is the write side of the store.
type Writer interface {
	// Set replaces the value at path. A nil value or empty object deletes it.
	Set(ctx context.Context, path string, value any) error

	// Delete removes the value at path and everything beneath it.
	Delete(ctx context.Context, path string) error
}

// Store is a hierarchical key-value store.
type Store interface {
	Reader
	Writer
}

// HealthChecker is implemented by backends that can report liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// unavailable wraps a backend error with ErrUnavailable.
func unavailable(op, path string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrUnavailable, op, path, err)
}

// CompareKeys orders event keys by ascending timestamp: keys that parse as
// 64-bit integers come first in numeric order, all other keys follow in
// lexicographic order. It returns -1, 0 or +1.
//
// This follows the Realtime Database key ordering except for width: the
// database only treats keys within 32-bit range as integers and orders longer
// ones, such as millisecond timestamps, as strings. The engine sorts query
// results itself so that timestamps of different lengths stay in time order.
func CompareKeys(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)

	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// SortNodes orders nodes by key using CompareKeys.
func SortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return CompareKeys(nodes[i].Key, nodes[j].Key) < 0
	})
}

// splitPath breaks a slash-separated path into segments, ignoring empty ones.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// joinPath is the inverse of splitPath.
func joinPath(segs []string) string {
	return strings.Join(segs, "/")
}

// normalize deep-copies v through JSON so every backend sees the same shapes
// the Realtime Database returns: map[string]any, []any, float64, string, bool.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return prune(out), nil
}

// prune drops empty objects, which the Realtime Database never stores.
func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		if child = prune(child); child == nil {
			delete(m, k)
		} else {
			m[k] = child
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// childAt walks a relative slash path inside v.
func childAt(v any, path string) any {
	for _, seg := range splitPath(path) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[seg]
	}
	return v
}

// filterChildren implements Query over an already-loaded subtree.
func filterChildren(tree any, orderByChild string, equalTo any) ([]Node, error) {
	children, ok := tree.(map[string]any)
	if !ok {
		return nil, nil
	}

	want, err := normalize(equalTo)
	if err != nil {
		return nil, err
	}

	var nodes []Node
	for key, child := range children {
		if reflect.DeepEqual(childAt(child, orderByChild), want) {
			nodes = append(nodes, Node{Key: key, Value: child})
		}
	}
	SortNodes(nodes)
	return nodes, nil
}
