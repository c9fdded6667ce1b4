package storage

import (
	"context"
	"testing"
)

func TestSubscribeInitialEmissionIsSynchronous(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "seed"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var snapshots [][]Doc
	cancel := c.Subscribe(Query{}, func(docs []Doc) {
		snapshots = append(snapshots, docs)
	})
	defer cancel()

	if len(snapshots) != 1 {
		t.Fatalf("expected 1 emission before Subscribe returned, got %d", len(snapshots))
	}
	if len(snapshots[0]) != 1 || snapshots[0][0]["id"] != "n1" {
		t.Fatalf("initial snapshot=%v", snapshots[0])
	}
}

func TestSubscribeEmitsPerMatchingWrite(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	var lengths []int
	cancel := c.Subscribe(Query{
		Match: func(doc Doc) bool { return doc["status"] == "draft" },
		Sort:  []SortField{{Field: "title"}},
	}, func(docs []Doc) {
		lengths = append(lengths, len(docs))
	})
	defer cancel()

	if _, err := c.Insert(ctx, Doc{"id": "a", "title": "one"}); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if _, err := c.Insert(ctx, Doc{"id": "b", "title": "two"}); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	// Does not match the predicate: the snapshot is unchanged, no emission.
	if _, err := c.Insert(ctx, Doc{"id": "c", "title": "three", "status": "final"}); err != nil {
		t.Fatalf("insert c: %v", err)
	}
	if err := c.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove a: %v", err)
	}

	want := []int{0, 1, 2, 1}
	if len(lengths) != len(want) {
		t.Fatalf("lengths=%v, want %v", lengths, want)
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Fatalf("lengths=%v, want %v", lengths, want)
		}
	}
}

func TestSubscribeDedupsByValue(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "same", "points": float64(1)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	emissions := 0
	cancel := c.Subscribe(Query{}, func([]Doc) { emissions++ })
	defer cancel()
	if emissions != 1 {
		t.Fatalf("emissions=%d after subscribe, want 1", emissions)
	}

	// Writing identical values changes nothing observable: no emission.
	if _, err := c.Patch(ctx, "n1", Doc{"title": "same"}); err != nil {
		t.Fatalf("patch same: %v", err)
	}
	if emissions != 1 {
		t.Fatalf("emissions=%d after no-op patch, want 1", emissions)
	}

	if _, err := c.Patch(ctx, "n1", Doc{"title": "different"}); err != nil {
		t.Fatalf("patch different: %v", err)
	}
	if emissions != 2 {
		t.Fatalf("emissions=%d after real patch, want 2", emissions)
	}
}

func TestSubscribeCancelStopsEmissions(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	emissions := 0
	cancel := c.Subscribe(Query{}, func([]Doc) { emissions++ })
	cancel()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if emissions != 1 {
		t.Fatalf("emissions=%d after cancel, want only the initial 1", emissions)
	}
}

func TestSubscribeOneLifecycle(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	var seen []Doc
	cancel := c.SubscribeOne("n1", func(doc Doc) {
		seen = append(seen, doc)
	})
	defer cancel()

	// Absent document: the initial emission is nil.
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("initial seen=%v", seen)
	}

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "born"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.Insert(ctx, Doc{"id": "n2", "title": "unrelated"}); err != nil {
		t.Fatalf("insert unrelated: %v", err)
	}
	if _, err := c.Patch(ctx, "n1", Doc{"title": "renamed"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if err := c.Remove(ctx, "n1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// nil, born, renamed, nil. The unrelated write emits nothing.
	if len(seen) != 4 {
		t.Fatalf("got %d emissions, want 4", len(seen))
	}
	if seen[1]["title"] != "born" || seen[2]["title"] != "renamed" {
		t.Fatalf("emission sequence wrong: %v", seen)
	}
	if seen[3] != nil {
		t.Fatalf("removal must emit nil, got %v", seen[3])
	}
}

func TestSubscriberMutationDoesNotSkewDedup(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "before"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// The callback rewrites its snapshot to the value a later write will
	// produce. The dedup baseline must not see that mutation, or the later
	// write would be swallowed as a no-op.
	emissions := 0
	cancel := c.Subscribe(Query{}, func(docs []Doc) {
		emissions++
		for _, doc := range docs {
			doc["title"] = "after"
		}
	})
	defer cancel()

	if _, err := c.Patch(ctx, "n1", Doc{"title": "after"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if emissions != 2 {
		t.Fatalf("emissions=%d, want 2: real change was deduped away", emissions)
	}
}

func TestSubscribeOneMutationDoesNotSkewDedup(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "before"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	emissions := 0
	cancel := c.SubscribeOne("n1", func(doc Doc) {
		emissions++
		if doc != nil {
			doc["title"] = "after"
		}
	})
	defer cancel()

	if _, err := c.Patch(ctx, "n1", Doc{"title": "after"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if emissions != 2 {
		t.Fatalf("emissions=%d, want 2: real change was deduped away", emissions)
	}
}

func TestEmittedSnapshotsAreImmutable(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "clean"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cancel := c.Subscribe(Query{}, func(docs []Doc) {
		for _, doc := range docs {
			doc["title"] = "dirty"
		}
	})
	defer cancel()

	doc, err := c.FindOne(ctx, "n1")
	if err != nil {
		t.Fatalf("findOne: %v", err)
	}
	if doc["title"] != "clean" {
		t.Fatalf("subscriber mutation leaked into storage: %v", doc["title"])
	}
}
