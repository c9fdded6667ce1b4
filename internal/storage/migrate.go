package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// migrateDoc walks a document from fromVersion up to the schema's version,
// one integer step at a time, each step feeding the next. A gap in the chain
// is an error: the store must never serve a partially-migrated document.
func migrateDoc(schema Schema, doc Doc, fromVersion int) (Doc, error) {
	if fromVersion > schema.Version {
		return nil, fmt.Errorf("stored v%d is newer than schema v%d", fromVersion, schema.Version)
	}
	cur := doc
	for v := fromVersion + 1; v <= schema.Version; v++ {
		step, ok := schema.Migrations[v]
		if !ok {
			return nil, fmt.Errorf("no migration step for v%d", v)
		}
		cur = step(cur)
	}
	return cur, nil
}

// load reads every stored document of the collection, migrates documents
// stamped below the schema version and rewrites them inside one transaction.
// Runs during AddCollection, before the collection is queryable.
func (c *Collection) load(ctx context.Context) error {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, version, data FROM documents WHERE collection = ?`, c.schema.Name)
	if err != nil {
		return storageErr("load "+c.schema.Name, err)
	}
	defer rows.Close()

	type pending struct {
		id  string
		doc Doc
	}
	var rewrites []pending

	for rows.Next() {
		var id string
		var version int
		var data string
		if err := rows.Scan(&id, &version, &data); err != nil {
			return storageErr("scan "+c.schema.Name, err)
		}

		var doc Doc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return &MigrationError{Collection: c.schema.Name, FromVersion: version, Err: fmt.Errorf("decode %q: %w", id, err)}
		}

		if version < c.schema.Version {
			migrated, err := migrateDoc(c.schema, doc, version)
			if err != nil {
				return &MigrationError{Collection: c.schema.Name, FromVersion: version, Err: err}
			}
			doc = migrated
			rewrites = append(rewrites, pending{id: id, doc: doc})
		} else if version > c.schema.Version {
			return &MigrationError{Collection: c.schema.Name, FromVersion: version,
				Err: fmt.Errorf("stored v%d is newer than schema v%d", version, c.schema.Version)}
		}

		doc = c.schema.ApplyDefaults(doc)
		if c.store.opts.DevMode {
			if err := c.schema.Validate(doc); err != nil {
				return &MigrationError{Collection: c.schema.Name, FromVersion: version, Err: err}
			}
		}
		c.docs[id] = doc
	}
	if err := rows.Err(); err != nil {
		return storageErr("load rows "+c.schema.Name, err)
	}

	if len(rewrites) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin migration tx "+c.schema.Name, err)
	}
	for _, p := range rewrites {
		data, err := json.Marshal(p.doc)
		if err != nil {
			_ = tx.Rollback()
			return &MigrationError{Collection: c.schema.Name, Err: fmt.Errorf("encode %q: %w", p.id, err)}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET version = ?, data = ? WHERE collection = ? AND id = ?`,
			c.schema.Version, string(data), c.schema.Name, p.id)
		if err != nil {
			_ = tx.Rollback()
			return storageErr("rewrite migrated doc "+c.schema.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit migration tx "+c.schema.Name, err)
	}
	return nil
}
