package storage

import "fmt"

// ValidationError reports a schema or constraint violation. The offending
// write is rejected in full; nothing is partially applied.
type ValidationError struct {
	Collection string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("collection %q: validation: %s", e.Collection, e.Reason)
}

// NotFoundError reports a lookup whose target was assumed to exist.
// Operations where absence is semantically safe (Remove) do not return it.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("collection %q: document %q not found", e.Collection, e.ID)
}

// StorageError wraps an underlying device I/O failure. It is fatal to the
// triggering operation and is never retried automatically.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MigrationError is fatal for the whole collection: a collection that fails
// to migrate must never become queryable with mixed-version documents.
type MigrationError struct {
	Collection  string
	FromVersion int
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("collection %q: migration from v%d: %v", e.Collection, e.FromVersion, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
