package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// A release lookup returning ErrNotFound triggers creation rather
	// than failing the run.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUploadExhausted indicates an asset upload failed on every
	// configured attempt. The edition stays unpublished; the stored
	// version must not advance past it.
	ErrUploadExhausted = errors.New("upload retries exhausted")

	// ErrEditionUnpublished indicates at least one edition of a product
	// could not be published this run.
	ErrEditionUnpublished = errors.New("edition not published")
)
