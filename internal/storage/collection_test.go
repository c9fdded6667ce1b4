package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInsertAndFindOne(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	inserted, err := c.Insert(ctx, Doc{"id": "n1", "title": "first", "points": float64(5)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted["status"] != "draft" {
		t.Fatalf("expected default status, got %v", inserted["status"])
	}

	doc, err := c.FindOne(ctx, "n1")
	if err != nil {
		t.Fatalf("findOne: %v", err)
	}
	if doc["title"] != "first" {
		t.Fatalf("title=%v, want first", doc["title"])
	}

	// Returned documents are copies: mutating one must not leak into storage.
	doc["title"] = "mutated"
	again, err := c.FindOne(ctx, "n1")
	if err != nil {
		t.Fatalf("findOne again: %v", err)
	}
	if again["title"] != "first" {
		t.Fatalf("stored doc changed through a returned copy: %v", again["title"])
	}
}

func TestInsertDuplicateID(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "first"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := c.Insert(ctx, Doc{"id": "n1", "title": "second"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFindOneAbsentIsNotAnError(t *testing.T) {
	c := newTestCollection(t)
	doc, err := c.FindOne(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("findOne absent: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil doc, got %v", doc)
	}
}

func TestFindFilterAndSort(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	seed := []Doc{
		{"id": "a", "title": "alpha", "points": float64(3), "status": "final"},
		{"id": "b", "title": "beta", "points": float64(1)},
		{"id": "c", "title": "gamma", "points": float64(3)},
		{"id": "d", "title": "delta", "points": float64(7)},
	}
	for _, doc := range seed {
		if _, err := c.Insert(ctx, doc); err != nil {
			t.Fatalf("insert %v: %v", doc["id"], err)
		}
	}

	docs, err := c.Find(ctx, Query{
		Match: func(doc Doc) bool { return doc["status"] == "draft" },
		Sort:  []SortField{{Field: "points", Desc: true}},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	var ids []string
	for _, doc := range docs {
		ids = append(ids, doc["id"].(string))
	}
	// Equal points fall back to id order, so b and c stay deterministic.
	want := []string{"d", "c", "b"}
	if len(ids) != len(want) {
		t.Fatalf("ids=%v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids=%v, want %v", ids, want)
		}
	}

	n, err := c.Count(ctx, func(doc Doc) bool { return doc["status"] == "final" })
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count=%d, want 1", n)
	}
}

func TestPatch(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "before", "points": float64(1)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	patched, err := c.Patch(ctx, "n1", Doc{"title": "after", "id": "hijack"})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched["title"] != "after" {
		t.Fatalf("title=%v, want after", patched["title"])
	}
	if patched["id"] != "n1" {
		t.Fatalf("patch must not change id, got %v", patched["id"])
	}
	if patched["points"] != float64(1) {
		t.Fatalf("untouched field lost: points=%v", patched["points"])
	}

	_, err = c.Patch(ctx, "ghost", Doc{"title": "x"})
	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpsertInsertsThenReplaces(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Upsert(ctx, Doc{"id": "n1", "title": "v1", "points": float64(2)}); err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	replaced, err := c.Upsert(ctx, Doc{"id": "n1", "title": "v2"})
	if err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	if replaced["title"] != "v2" {
		t.Fatalf("title=%v, want v2", replaced["title"])
	}
	// Upsert replaces the whole document; the old points field is gone.
	if _, ok := replaced["points"]; ok {
		t.Fatalf("upsert merged instead of replacing: %v", replaced)
	}
}

func TestIncrementalModifyConcurrent(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "counter", "points": float64(0)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.IncrementalModify(ctx, "n1", func(doc Doc) Doc {
				doc["points"] = doc["points"].(float64) + 1
				return doc
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("incrementalModify: %v", err)
	}

	doc, err := c.FindOne(ctx, "n1")
	if err != nil {
		t.Fatalf("findOne: %v", err)
	}
	if doc["points"] != float64(workers) {
		t.Fatalf("points=%v, want %d: increments were lost", doc["points"], workers)
	}
}

func TestIncrementalModifyNilResult(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := c.IncrementalModify(ctx, "n1", func(Doc) Doc { return nil })
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// The document must be untouched.
	doc, _ := c.FindOne(ctx, "n1")
	if doc["title"] != "x" {
		t.Fatalf("doc changed after rejected modify: %v", doc)
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	c := newTestCollection(t)
	if err := c.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestRemoveThenFindOne(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "n1", "title": "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.Remove(ctx, "n1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	doc, err := c.FindOne(ctx, "n1")
	if err != nil || doc != nil {
		t.Fatalf("after remove: doc=%v err=%v", doc, err)
	}
}

func TestBulkInsertPartialFailure(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	if _, err := c.Insert(ctx, Doc{"id": "dup", "title": "existing"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	inserted, err := c.BulkInsert(ctx, []Doc{
		{"id": "ok1", "title": "good"},
		{"id": "dup", "title": "conflicts"},
		{"id": "bad1"}, // missing required title
		{"id": "ok2", "title": "also good"},
	})
	if err == nil {
		t.Fatalf("expected joined error for the failing documents")
	}
	if len(inserted) != 2 {
		t.Fatalf("inserted %d docs, want 2", len(inserted))
	}
	for _, id := range []string{"ok1", "ok2"} {
		doc, ferr := c.FindOne(ctx, id)
		if ferr != nil || doc == nil {
			t.Fatalf("expected %s to be inserted: doc=%v err=%v", id, doc, ferr)
		}
	}
	if doc, _ := c.FindOne(ctx, "bad1"); doc != nil {
		t.Fatalf("invalid doc was inserted: %v", doc)
	}
}

func TestBulkRemoveSkipsAbsent(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc := Doc{"id": fmt.Sprintf("n%d", i), "title": "x"}
		if _, err := c.Insert(ctx, doc); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := c.BulkRemove(ctx, []string{"n0", "ghost", "n2"}); err != nil {
		t.Fatalf("bulkRemove: %v", err)
	}
	n, err := c.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count=%d, want 1", n)
	}
}
