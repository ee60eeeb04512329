package dedup

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/doorbell-core/internal/store"
)

// countingStore records the writes made through it.
type countingStore struct {
	store.Store
	sets    []string
	deletes []string
}

func (c *countingStore) Set(ctx context.Context, path string, value any) error {
	c.sets = append(c.sets, path)
	return c.Store.Set(ctx, path, value)
}

func (c *countingStore) Delete(ctx context.Context, path string) error {
	c.deletes = append(c.deletes, path)
	return c.Store.Delete(ctx, path)
}

func record(tag string, fields map[string]any) map[string]any {
	r := map[string]any{"type": "RING", "payload": map[string]any{"tag": tag}}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func seed(t *testing.T, s store.Store, doorbellID string, records map[string]map[string]any) {
	t.Helper()
	for ts, r := range records {
		if err := s.Set(context.Background(), store.DoorbellEvent(doorbellID, ts), r); err != nil {
			t.Fatalf("seeding %s: %v", ts, err)
		}
	}
}

func events(t *testing.T, s store.Store, doorbellID string) map[string]any {
	t.Helper()
	v, err := s.Get(context.Background(), store.DoorbellEvents(doorbellID))
	if err != nil {
		t.Fatalf("Get(events) error = %v", err)
	}
	m, _ := v.(map[string]any)
	return m
}

func TestDeduplicate_MergeCorrectness(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, "d1", map[string]map[string]any{
		"1": record("t", map[string]any{"a": 1}),
		"2": record("t", map[string]any{"a": 2, "b": 3}),
		"3": record("t", map[string]any{"b": 4}),
	})

	res, err := NewEngine(mem, nil).Deduplicate(context.Background(), "d1", "t")
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}

	if res.Canonical != "1" {
		t.Errorf("Canonical = %q, want 1", res.Canonical)
	}
	if want := []string{"2", "3"}; !reflect.DeepEqual(res.Removed, want) {
		t.Errorf("Removed = %v, want %v", res.Removed, want)
	}

	got := events(t, mem, "d1")
	if len(got) != 1 {
		t.Fatalf("surviving events = %v, want exactly one", got)
	}
	survivor, _ := got["1"].(map[string]any)
	if survivor["a"] != float64(2) || survivor["b"] != float64(4) {
		t.Errorf("survivor = %v, want a=2 b=4", survivor)
	}
}

func TestDeduplicate_KeyOrder(t *testing.T) {
	// "10" sorts after "9" numerically even though it is lexicographically smaller.
	mem := store.NewMemory()
	seed(t, mem, "d1", map[string]map[string]any{
		"9":  record("t", map[string]any{"v": "first"}),
		"10": record("t", map[string]any{"v": "second"}),
	})

	res, err := NewEngine(mem, nil).Deduplicate(context.Background(), "d1", "t")
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if res.Canonical != "9" {
		t.Errorf("Canonical = %q, want 9", res.Canonical)
	}
	if res.Merged["v"] != "second" {
		t.Errorf("Merged[v] = %v, want second", res.Merged["v"])
	}
}

func TestDeduplicate_NoOps(t *testing.T) {
	tests := []struct {
		name    string
		records map[string]map[string]any
		tag     string
	}{
		{
			name:    "empty tag",
			records: map[string]map[string]any{"1": record("", nil), "2": record("", nil)},
			tag:     "",
		},
		{
			name:    "single match",
			records: map[string]map[string]any{"1": record("t", nil), "2": record("other", nil)},
			tag:     "t",
		},
		{
			name:    "no events",
			records: nil,
			tag:     "t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			seed(t, mem, "d1", tt.records)
			cs := &countingStore{Store: mem}

			res, err := NewEngine(cs, nil).Deduplicate(context.Background(), "d1", tt.tag)
			if err != nil {
				t.Fatalf("Deduplicate() error = %v", err)
			}
			if res.Changed() {
				t.Errorf("Deduplicate() = %+v, want no change", res)
			}
			if len(cs.sets) != 0 || len(cs.deletes) != 0 {
				t.Errorf("writes = %v / deletes = %v, want none", cs.sets, cs.deletes)
			}
			if got := events(t, mem, "d1"); len(got) != len(tt.records) {
				t.Errorf("events = %v, want %d untouched", got, len(tt.records))
			}
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, "d1", map[string]map[string]any{
		"1": record("t", map[string]any{"a": 1}),
		"2": record("t", map[string]any{"a": 2}),
	})
	engine := NewEngine(mem, nil)

	if _, err := engine.Deduplicate(context.Background(), "d1", "t"); err != nil {
		t.Fatalf("first Deduplicate() error = %v", err)
	}
	before := events(t, mem, "d1")

	cs := &countingStore{Store: mem}
	res, err := NewEngine(cs, nil).Deduplicate(context.Background(), "d1", "t")
	if err != nil {
		t.Fatalf("second Deduplicate() error = %v", err)
	}
	if res.Changed() || len(cs.sets) != 0 || len(cs.deletes) != 0 {
		t.Errorf("second pass changed state: %+v sets=%v deletes=%v", res, cs.sets, cs.deletes)
	}
	if after := events(t, mem, "d1"); !reflect.DeepEqual(before, after) {
		t.Errorf("events changed: before %v, after %v", before, after)
	}
}

func TestDeduplicate_ConvergesInAnyTriggerOrder(t *testing.T) {
	orders := [][]string{
		{"1", "2", "3"},
		{"3", "2", "1"},
		{"2", "3", "1"},
	}

	for _, order := range orders {
		mem := store.NewMemory()
		seed(t, mem, "d1", map[string]map[string]any{
			"1": record("t", map[string]any{"a": 1}),
			"2": record("t", map[string]any{"a": 2, "b": 3}),
			"3": record("t", map[string]any{"b": 4}),
		})
		engine := NewEngine(mem, nil)

		// One pass per sibling trigger, in arrival order.
		for range order {
			if _, err := engine.Deduplicate(context.Background(), "d1", "t"); err != nil {
				t.Fatalf("order %v: Deduplicate() error = %v", order, err)
			}
		}

		got := events(t, mem, "d1")
		survivor, _ := got["1"].(map[string]any)
		if len(got) != 1 || survivor["a"] != float64(2) || survivor["b"] != float64(4) {
			t.Errorf("order %v: events = %v, want single {a:2 b:4} at 1", order, got)
		}
	}
}

func TestDeduplicate_LeavesOtherTagsAlone(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, "d1", map[string]map[string]any{
		"1": record("t", nil),
		"2": record("t", nil),
		"3": record("u", nil),
		"4": {"type": "RING", "payload": map[string]any{}},
	})

	if _, err := NewEngine(mem, nil).Deduplicate(context.Background(), "d1", "t"); err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}

	got := events(t, mem, "d1")
	for _, key := range []string{"1", "3", "4"} {
		if _, ok := got[key]; !ok {
			t.Errorf("event %s missing after dedup: %v", key, got)
		}
	}
	if _, ok := got["2"]; ok {
		t.Error("duplicate 2 survived")
	}
}

func TestDeduplicate_StoreUnavailable(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, "d1", map[string]map[string]any{"1": record("t", nil), "2": record("t", nil)})
	mem.Fail(errors.New("network down"))

	_, err := NewEngine(mem, nil).Deduplicate(context.Background(), "d1", "t")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("Deduplicate() error = %v, want store.ErrUnavailable", err)
	}
}
