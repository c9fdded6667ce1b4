package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Collection is one versioned document collection. All mutations serialize
// on a single write lock; subscription callbacks run under that lock, which
// is what makes IncrementalModify atomic and emissions strictly ordered.
type Collection struct {
	store  *Store
	schema Schema

	mu        sync.Mutex
	docs      map[string]Doc
	subs      map[int]*subscription
	nextSubID int
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.schema.Name }

// Insert persists a new document. A duplicate id is a constraint violation.
func (c *Collection) Insert(ctx context.Context, doc Doc) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.prepareLocked(doc)
	if err != nil {
		return nil, err
	}
	id := doc["id"].(string)
	if _, exists := c.docs[id]; exists {
		return nil, &ValidationError{Collection: c.schema.Name, Reason: fmt.Sprintf("duplicate id %q", id)}
	}
	if err := c.persistPutLocked(ctx, id, doc); err != nil {
		return nil, err
	}
	c.docs[id] = doc
	c.notifyLocked()
	return cloneDoc(doc), nil
}

// BulkInsert inserts each document independently: one conflicting or invalid
// document does not prevent insertion of the others. The inserted documents
// are returned alongside a joined error for any that failed.
func (c *Collection) BulkInsert(ctx context.Context, docs []Doc) ([]Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var inserted []Doc
	var errs []error
	changed := false
	for _, raw := range docs {
		doc, err := c.prepareLocked(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		id := doc["id"].(string)
		if _, exists := c.docs[id]; exists {
			errs = append(errs, &ValidationError{Collection: c.schema.Name, Reason: fmt.Sprintf("duplicate id %q", id)})
			continue
		}
		if err := c.persistPutLocked(ctx, id, doc); err != nil {
			errs = append(errs, err)
			continue
		}
		c.docs[id] = doc
		inserted = append(inserted, cloneDoc(doc))
		changed = true
	}
	if changed {
		c.notifyLocked()
	}
	return inserted, errors.Join(errs...)
}

// FindOne returns the document with the given id, or (nil, nil) when absent.
// Absence is not an error.
func (c *Collection) FindOne(ctx context.Context, id string) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

// Find returns all documents matching the query, fully materialized and
// sorted. A nil predicate matches everything.
func (c *Collection) Find(ctx context.Context, q Query) ([]Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultLocked(q), nil
}

// Count returns the number of documents matching the predicate.
func (c *Collection) Count(ctx context.Context, match func(Doc) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, doc := range c.docs {
		if match == nil || match(doc) {
			n++
		}
	}
	return n, nil
}

// Patch atomically merges the given fields into an existing document.
func (c *Collection) Patch(ctx context.Context, id string, fields Doc) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.docs[id]
	if !ok {
		return nil, &NotFoundError{Collection: c.schema.Name, ID: id}
	}
	next := cloneDoc(cur)
	for k, v := range fields {
		if k == "id" {
			continue
		}
		next[k] = v
	}
	return c.replaceLocked(ctx, id, next)
}

// Upsert inserts or fully replaces a document. The caller supplies the whole
// document, so there is no partial-merge ambiguity.
func (c *Collection) Upsert(ctx context.Context, doc Doc) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.prepareLocked(doc)
	if err != nil {
		return nil, err
	}
	return c.replaceLocked(ctx, doc["id"].(string), doc)
}

// IncrementalModify reads the current document, applies fn and writes the
// result. The whole sequence holds the collection write lock, so two racing
// modifications of the same document can never both observe the old value.
func (c *Collection) IncrementalModify(ctx context.Context, id string, fn func(Doc) Doc) (Doc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.docs[id]
	if !ok {
		return nil, &NotFoundError{Collection: c.schema.Name, ID: id}
	}
	next := fn(cloneDoc(cur))
	if next == nil {
		return nil, &ValidationError{Collection: c.schema.Name, Reason: "modify function returned nil document"}
	}
	next["id"] = id
	return c.replaceLocked(ctx, id, next)
}

// Remove deletes a document. Removing an absent id is a no-op, not an error.
func (c *Collection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, id, true)
}

// BulkRemove deletes every listed id, skipping absent ones.
func (c *Collection) BulkRemove(ctx context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for _, id := range ids {
		if _, ok := c.docs[id]; !ok {
			continue
		}
		if err := c.removeLocked(ctx, id, false); err != nil {
			if changed {
				c.notifyLocked()
			}
			return err
		}
		changed = true
	}
	if changed {
		c.notifyLocked()
	}
	return nil
}

func (c *Collection) removeLocked(ctx context.Context, id string, notify bool) error {
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	_, err := c.store.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, c.schema.Name, id)
	if err != nil {
		return storageErr("delete "+c.schema.Name, err)
	}
	delete(c.docs, id)
	if notify {
		c.notifyLocked()
	}
	return nil
}

// prepareLocked applies defaults and (in dev mode) validates.
func (c *Collection) prepareLocked(doc Doc) (Doc, error) {
	if doc == nil {
		return nil, &ValidationError{Collection: c.schema.Name, Reason: "nil document"}
	}
	doc = c.schema.ApplyDefaults(cloneDoc(doc))
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return nil, &ValidationError{Collection: c.schema.Name, Reason: "missing or non-string id"}
	}
	if c.store.opts.DevMode {
		if err := c.schema.Validate(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (c *Collection) replaceLocked(ctx context.Context, id string, doc Doc) (Doc, error) {
	if c.store.opts.DevMode {
		if err := c.schema.Validate(doc); err != nil {
			return nil, err
		}
	}
	if err := c.persistPutLocked(ctx, id, doc); err != nil {
		return nil, err
	}
	c.docs[id] = doc
	c.notifyLocked()
	return cloneDoc(doc), nil
}

func (c *Collection) persistPutLocked(ctx context.Context, id string, doc Doc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return &ValidationError{Collection: c.schema.Name, Reason: fmt.Sprintf("encode %q: %v", id, err)}
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, version, data) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET version = excluded.version, data = excluded.data
	`, c.schema.Name, id, c.schema.Version, string(data))
	if err != nil {
		return storageErr("write "+c.schema.Name, err)
	}
	return nil
}

// resultLocked materializes a query result: filtered, sorted, cloned.
func (c *Collection) resultLocked(q Query) []Doc {
	out := make([]Doc, 0, len(c.docs))
	for _, doc := range c.docs {
		if q.Match == nil || q.Match(doc) {
			out = append(out, doc)
		}
	}
	sortDocs(out, q.Sort)
	for i := range out {
		out[i] = cloneDoc(out[i])
	}
	return out
}

// sortDocs applies the sort fields lexicographically, with id as the final
// tie-break so result order is deterministic.
func sortDocs(docs []Doc, fields []SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			cmp := compareValues(docs[i][f.Field], docs[j][f.Field])
			if cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		idI, _ := docs[i]["id"].(string)
		idJ, _ := docs[j]["id"].(string)
		return idI < idJ
	})
}

func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch {
			case sa < sb:
				return -1
			case sa > sb:
				return 1
			}
			return 0
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case !ba && bb:
				return -1
			case ba && !bb:
				return 1
			}
			return 0
		}
	}
	// Mixed types: stable but arbitrary.
	return 0
}

// cloneDoc deep-copies a document so subscribers and callers never hold
// references into storage internals.
func cloneDoc(doc Doc) Doc {
	if doc == nil {
		return nil
	}
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
