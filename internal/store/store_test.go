package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/doorbell-core/internal/infrastructure/database"
)

func TestCompareKeys(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"10", "10", 0},
		{"-5", "3", -1},
		{"999", "a", -1},
		{"a", "999", 1},
		{"abc", "abd", -1},
		{"B", "a", -1},
		{"1697280000000", "1697280000001", -1},
		{"01", "1", -1},
		{"999999999999", "1000000000000", -1},
		{"1000000000000", "999999999999", 1},
		{"2147483648", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := CompareKeys(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareKeys(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortNodes(t *testing.T) {
	nodes := []Node{{Key: "b"}, {Key: "100"}, {Key: "a"}, {Key: "20"}, {Key: "3"}}
	SortNodes(nodes)

	var got []string
	for _, n := range nodes {
		got = append(got, n.Key)
	}
	want := []string{"3", "20", "100", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortNodes() = %v, want %v", got, want)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"bell-1", false},
		{"1697280000000", false},
		{"", true},
		{"a.b", true},
		{"a$b", true},
		{"a#b", true},
		{"a[0]", true},
		{"a/b", true},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ValidateKey(%q) error = %v, want ErrInvalidPath", tt.key, err)
		}
	}
}

func TestPaths(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DoorbellEvents("bell-1"), "doorbells/bell-1/events"},
		{DoorbellEvent("bell-1", "42"), "doorbells/bell-1/events/42"},
		{DoorbellState("bell-1", "online"), "doorbells/bell-1/state/online"},
		{DoorbellUsers("bell-1"), "doorbells/bell-1/users"},
		{UserTokens("uid-1"), "users/uid-1/gcm-ids"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("path = %q, want %q", tt.got, tt.want)
		}
	}
}

// backends returns every locally testable Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:", BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlite, err := NewSQLite(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			event := map[string]any{
				"type":    "RING",
				"payload": map[string]any{"tag": "t1"},
				"count":   3,
			}
			if err := s.Set(ctx, "doorbells/d1/events/100", event); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := s.Get(ctx, "doorbells/d1/events/100")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			want := map[string]any{
				"type":    "RING",
				"payload": map[string]any{"tag": "t1"},
				"count":   float64(3),
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Get() = %#v, want %#v", got, want)
			}

			leaf, err := s.Get(ctx, "doorbells/d1/events/100/payload/tag")
			if err != nil {
				t.Fatalf("Get(leaf) error = %v", err)
			}
			if leaf != "t1" {
				t.Errorf("Get(leaf) = %v, want t1", leaf)
			}

			parent, err := s.Get(ctx, "doorbells/d1")
			if err != nil {
				t.Fatalf("Get(parent) error = %v", err)
			}
			if _, ok := childAt(parent, "events/100/type").(string); !ok {
				t.Errorf("Get(parent) = %#v, missing events/100/type", parent)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Get(ctx, "doorbells/nope/users")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != nil {
				t.Errorf("Get() = %#v, want nil", got)
			}
		})
	}
}

func TestStore_SetReplaces(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "a/b", map[string]any{"x": 1, "y": 2}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "a/b", map[string]any{"z": 3}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, _ := s.Get(ctx, "a/b")
			want := map[string]any{"z": float64(3)}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Get() = %#v, want %#v", got, want)
			}

			// Writing beneath a leaf replaces the leaf with an object.
			if err := s.Set(ctx, "a/b/z/deep", true); err != nil {
				t.Fatalf("Set(deep) error = %v", err)
			}
			got, _ = s.Get(ctx, "a/b")
			want = map[string]any{"z": map[string]any{"deep": true}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Get() after deep set = %#v, want %#v", got, want)
			}
		})
	}
}

func TestStore_SetNilDeletes(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "a/b", "v"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "a/b", nil); err != nil {
				t.Fatalf("Set(nil) error = %v", err)
			}
			if got, _ := s.Get(ctx, "a/b"); got != nil {
				t.Errorf("Get() = %#v, want nil", got)
			}
			if err := s.Set(ctx, "a/c", map[string]any{}); err != nil {
				t.Fatalf("Set(empty) error = %v", err)
			}
			if got, _ := s.Get(ctx, "a"); got != nil {
				t.Errorf("Get(a) = %#v, want nil", got)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Set(ctx, "doorbells/d1/events/1", map[string]any{"type": "RING"})
			_ = s.Set(ctx, "doorbells/d1/events/10", map[string]any{"type": "RING"})
			_ = s.Set(ctx, "doorbells/d1/events1", "sibling with shared prefix")

			if err := s.Delete(ctx, "doorbells/d1/events/1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			if got, _ := s.Get(ctx, "doorbells/d1/events/1"); got != nil {
				t.Errorf("Get(deleted) = %#v, want nil", got)
			}
			if got, _ := s.Get(ctx, "doorbells/d1/events/10"); got == nil {
				t.Error("Delete() removed a sibling key")
			}
			if got, _ := s.Get(ctx, "doorbells/d1/events1"); got == nil {
				t.Error("Delete() removed a key sharing the prefix")
			}

			if err := s.Delete(ctx, "doorbells/d1/events/missing"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := DoorbellEvents("d1")
			_ = s.Set(ctx, base+"/300", map[string]any{"payload": map[string]any{"tag": "x"}, "n": 3})
			_ = s.Set(ctx, base+"/20", map[string]any{"payload": map[string]any{"tag": "x"}, "n": 2})
			_ = s.Set(ctx, base+"/b", map[string]any{"payload": map[string]any{"tag": "x"}, "n": 4})
			_ = s.Set(ctx, base+"/100", map[string]any{"payload": map[string]any{"tag": "y"}})
			_ = s.Set(ctx, base+"/5", map[string]any{"type": "RING"})

			nodes, err := s.Query(ctx, base, TagChild, "x")
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}

			var keys []string
			for _, n := range nodes {
				keys = append(keys, n.Key)
			}
			if want := []string{"20", "300", "b"}; !reflect.DeepEqual(keys, want) {
				t.Errorf("Query() keys = %v, want %v", keys, want)
			}
			if v := childAt(nodes[0].Value, "n"); v != float64(2) {
				t.Errorf("Query()[0].n = %v, want 2", v)
			}

			empty, err := s.Query(ctx, DoorbellEvents("other"), TagChild, "x")
			if err != nil {
				t.Fatalf("Query(empty) error = %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Query(empty) = %v, want none", empty)
			}
		})
	}
}

func TestStore_InvalidPath(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "doorbells/a.b", 1); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Set() error = %v, want ErrInvalidPath", err)
			}
			if err := s.Delete(ctx, ""); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Delete(root) error = %v, want ErrInvalidPath", err)
			}
		})
	}
}

func TestMemory_Fail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Fail(errors.New("connection reset"))

	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() error = %v, want ErrUnavailable", err)
	}
	if err := m.Set(ctx, "a", 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set() error = %v, want ErrUnavailable", err)
	}
	if err := m.HealthCheck(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("HealthCheck() error = %v, want ErrUnavailable", err)
	}

	m.Fail(nil)
	if err := m.Set(ctx, "a", 1); err != nil {
		t.Errorf("Set() after recovery error = %v", err)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "a", map[string]any{"k": "v"})

	got, _ := m.Get(ctx, "a")
	got.(map[string]any)["k"] = "mutated"

	again, _ := m.Get(ctx, "a")
	if again.(map[string]any)["k"] != "v" {
		t.Error("mutating a returned value changed the stored value")
	}
}
