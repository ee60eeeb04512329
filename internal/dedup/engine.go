package dedup

import (
	"context"
	"fmt"
	"maps"

	"github.com/nerrad567/doorbell-core/internal/store"
)

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Result describes one deduplication pass.
type Result struct {
	// Canonical is the surviving key, empty when nothing was merged.
	Canonical string

	// Removed lists the duplicate keys deleted, in merge order.
	Removed []string

	// Merged is the record written to Canonical.
	Merged map[string]any
}

// Changed reports whether the pass rewrote any records.
func (r Result) Changed() bool {
	return len(r.Removed) > 0
}

// Engine merges events that share a correlation tag.
//
// Thread Safety: Deduplicate is safe for concurrent use; see the package
// documentation for the consistency it provides.
type Engine struct {
	store  store.Store
	logger Logger
}

// NewEngine creates a deduplication engine over s.
func NewEngine(s store.Store, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{store: s, logger: logger}
}

// Deduplicate merges every event of doorbellID whose payload.tag equals tag.
//
// An empty tag, or a tag matching a single record, is a no-op.
func (e *Engine) Deduplicate(ctx context.Context, doorbellID, tag string) (Result, error) {
	if tag == "" {
		return Result{}, nil
	}

	eventsPath := store.DoorbellEvents(doorbellID)
	nodes, err := e.store.Query(ctx, eventsPath, store.TagChild, tag)
	if err != nil {
		return Result{}, fmt.Errorf("querying tag %q: %w", tag, err)
	}
	if len(nodes) <= 1 {
		return Result{}, nil
	}

	// Backends differ in the order they return; the merge order is by key.
	store.SortNodes(nodes)

	canonical := nodes[0]
	merged := make(map[string]any)
	if fields, ok := canonical.Value.(map[string]any); ok {
		maps.Copy(merged, fields)
	}

	removed := make([]string, 0, len(nodes)-1)
	for _, dup := range nodes[1:] {
		if fields, ok := dup.Value.(map[string]any); ok {
			maps.Copy(merged, fields)
		}
		removed = append(removed, dup.Key)
	}

	for _, key := range removed {
		if err := e.store.Delete(ctx, store.DoorbellEvent(doorbellID, key)); err != nil {
			return Result{}, fmt.Errorf("deleting duplicate %s: %w", key, err)
		}
	}
	if err := e.store.Set(ctx, store.DoorbellEvent(doorbellID, canonical.Key), merged); err != nil {
		return Result{}, fmt.Errorf("writing canonical %s: %w", canonical.Key, err)
	}

	e.logger.Info("merged duplicate events",
		"doorbell_id", doorbellID,
		"tag", tag,
		"canonical", canonical.Key,
		"removed", len(removed),
	)

	return Result{Canonical: canonical.Key, Removed: removed, Merged: merged}, nil
}
