package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// notesSchema is the fixture collection used across the storage tests. It is
// two versions deep so migration behavior is exercised by the same shape.
func notesSchema() Schema {
	return Schema{
		Name:    "notes",
		Version: 2,
		Fields: map[string]Field{
			"title":  {Type: FieldString, Required: true},
			"points": {Type: FieldNumber, Minimum: Min(0)},
			"status": {Type: FieldString, Enum: []string{"draft", "final"}, Default: "draft"},
			"tags":   {Type: FieldArray, Default: []any{}},
		},
		Migrations: map[int]Migration{
			1: func(doc Doc) Doc {
				doc["points"] = float64(0)
				return doc
			},
			2: func(doc Doc) Doc {
				doc["tags"] = []any{}
				return doc
			},
		},
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(ctx, path, Options{DevMode: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	store, _ := newTestStore(t)
	c, err := store.AddCollection(context.Background(), notesSchema())
	if err != nil {
		t.Fatalf("add collection: %v", err)
	}
	return c
}

func TestAddCollectionIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.AddCollection(ctx, notesSchema())
	if err != nil {
		t.Fatalf("add collection: %v", err)
	}
	second, err := store.AddCollection(ctx, notesSchema())
	if err != nil {
		t.Fatalf("add collection again: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same collection instance on repeat registration")
	}
	if store.Collection("notes") != first {
		t.Fatalf("Collection lookup returned a different instance")
	}
}

func TestCollectionLookupUnknownIsNil(t *testing.T) {
	store, _ := newTestStore(t)
	if c := store.Collection("nope"); c != nil {
		t.Fatalf("expected nil for unregistered collection, got %v", c.Name())
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(ctx, path, Options{DevMode: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	c, err := store.AddCollection(ctx, notesSchema())
	if err != nil {
		t.Fatalf("add collection: %v", err)
	}
	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "persists", "points": float64(3)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path, Options{DevMode: true})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	c2, err := reopened.AddCollection(ctx, notesSchema())
	if err != nil {
		t.Fatalf("add collection after reopen: %v", err)
	}
	doc, err := c2.FindOne(ctx, "n1")
	if err != nil {
		t.Fatalf("findOne after reopen: %v", err)
	}
	if doc == nil {
		t.Fatalf("document did not survive reopen")
	}
	if doc["title"] != "persists" || doc["points"] != float64(3) {
		t.Fatalf("reopened doc=%v", doc)
	}
}

func TestCloseDropsSubscriptions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	c, err := store.AddCollection(ctx, notesSchema())
	if err != nil {
		t.Fatalf("add collection: %v", err)
	}

	emissions := 0
	c.Subscribe(Query{}, func([]Doc) { emissions++ })
	if emissions != 1 {
		t.Fatalf("expected initial emission, got %d", emissions)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Writes after close fail at the database, but the subscription must
	// already be inert regardless.
	if len(c.subs) != 0 {
		t.Fatalf("expected subscriptions dropped on close, %d remain", len(c.subs))
	}
}
