package mapping

import "testing"

func TestSchemaCachePutGet(t *testing.T) {
	cache := NewSchemaCache()

	if _, ok := cache.Get("users", "users_copy"); ok {
		t.Fatalf("unseen key must be absent")
	}

	cols := PairColumns{
		SourceColumns: []Column{col("id", "int", true, false)},
		TargetColumns: []Column{col("id", "int", true, false)},
	}
	cache.Put("users", "users_copy", cols)

	got, ok := cache.Get("users", "users_copy")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got.SourceColumns) != 1 || got.SourceColumns[0].Name != "id" {
		t.Fatalf("cached value = %+v", got)
	}

	// Same source table against a different target is a different pair.
	if _, ok := cache.Get("users", "other"); ok {
		t.Fatalf("pair key must include target table")
	}
}

func TestSchemaCacheInvalidate(t *testing.T) {
	cache := NewSchemaCache()
	cache.Put("a", "b", PairColumns{})
	if cache.Len() != 1 {
		t.Fatalf("len = %d, want 1", cache.Len())
	}

	cache.Invalidate("a", "b")
	if _, ok := cache.Get("a", "b"); ok {
		t.Fatalf("entry survived invalidation")
	}

	// Invalidating an absent key is fine.
	cache.Invalidate("a", "b")
}
