package storage

import "reflect"

// Query scopes a predicate and sort order to one collection.
type Query struct {
	Match func(Doc) bool
	Sort  []SortField
}

// SortField is one (field, direction) pair; pairs apply lexicographically.
type SortField struct {
	Field string
	Desc  bool
}

// subscription is one registered observer. Either list or one is set.
type subscription struct {
	query    Query
	list     func([]Doc)
	docID    string
	one      func(Doc)
	lastList []Doc
	lastOne  Doc
	active   bool
}

// Subscribe registers a reactive query. The callback receives the current
// result set synchronously before Subscribe returns, then a fresh snapshot
// after every write that changes the ordered result by value. Emissions run
// under the collection write lock, so they are strictly ordered with the
// writes that caused them. The callback must not mutate this collection;
// writing to other collections is the intended aggregation pattern.
func (c *Collection) Subscribe(q Query, fn func([]Doc)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscription{query: q, list: fn, active: true}
	sub.lastList = c.resultLocked(q)
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = sub
	fn(cloneDocs(sub.lastList))

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s, ok := c.subs[id]; ok {
			s.active = false
			delete(c.subs, id)
		}
	}
}

// SubscribeOne is the point-query variant: the callback receives the current
// document (nil when absent), then fires on every change to it, including
// removal.
func (c *Collection) SubscribeOne(docID string, fn func(Doc)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscription{docID: docID, one: fn, active: true}
	if doc, ok := c.docs[docID]; ok {
		sub.lastOne = cloneDoc(doc)
	}
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = sub
	fn(cloneDoc(sub.lastOne))

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s, ok := c.subs[id]; ok {
			s.active = false
			delete(c.subs, id)
		}
	}
}

// notifyLocked recomputes every live subscription and emits snapshots that
// changed. Caller holds c.mu. The subscriber always receives its own copy;
// the retained dedup baseline is never shared with callbacks.
func (c *Collection) notifyLocked() {
	for _, sub := range c.subs {
		if !sub.active {
			continue
		}
		if sub.list != nil {
			next := c.resultLocked(sub.query)
			if reflect.DeepEqual(next, sub.lastList) {
				continue
			}
			sub.lastList = next
			sub.list(cloneDocs(next))
			continue
		}
		var next Doc
		if doc, ok := c.docs[sub.docID]; ok {
			next = cloneDoc(doc)
		}
		if reflect.DeepEqual(next, sub.lastOne) {
			continue
		}
		sub.lastOne = next
		sub.one(cloneDoc(next))
	}
}

func cloneDocs(docs []Doc) []Doc {
	if docs == nil {
		return nil
	}
	out := make([]Doc, len(docs))
	for i, d := range docs {
		out[i] = cloneDoc(d)
	}
	return out
}

func (c *Collection) dropSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, sub := range c.subs {
		sub.active = false
		delete(c.subs, id)
	}
}
