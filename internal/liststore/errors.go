package liststore

import (
	"errors"
	"fmt"
)

// Op names the storage operation that failed.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// StorageError reports a failed read or write of the persisted blob.
// Storage errors are not fatal: the snapshot returned alongside one is usable.
type StorageError struct {
	Op  Op
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s of %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ListNotFoundError is returned when an operation names a list that does not exist.
type ListNotFoundError struct {
	Name string
}

func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("list not found: %s", e.Name)
}

// DuplicateListError is returned by CreateList under DuplicateReject when the name is taken.
type DuplicateListError struct {
	Name string
}

func (e *DuplicateListError) Error() string {
	return fmt.Sprintf("list '%s' already exists", e.Name)
}

// IsStorageError reports whether err is a read or write failure of the persisted blob.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsStorageReadError reports whether err is a failed read.
func IsStorageReadError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Op == OpRead
}

// IsStorageWriteError reports whether err is a failed write.
func IsStorageWriteError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Op == OpWrite
}

// IsListNotFound reports whether err is a ListNotFoundError.
func IsListNotFound(err error) bool {
	var nf *ListNotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateList reports whether err is a DuplicateListError.
func IsDuplicateList(err error) bool {
	var dup *DuplicateListError
	return errors.As(err, &dup)
}
