package registry

import "errors"

var (
	// ErrNotFound means no knowledge entry exists for the given id.
	ErrNotFound = errors.New("registry: not found")

	// ErrDuplicate means an upload's content hash matches an existing entry.
	ErrDuplicate = errors.New("registry: duplicate upload")

	// ErrInvalidUpload means the uploaded archive failed validation.
	ErrInvalidUpload = errors.New("registry: invalid upload")

	// ErrInvalidCategory means the category is not in the accepted list.
	ErrInvalidCategory = errors.New("registry: invalid category")
)
