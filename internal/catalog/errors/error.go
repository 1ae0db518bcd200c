// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var ErrValidation = errors.New("all product fields are required")
var ErrDuplicateCode = errors.New("a product with the same code already exists")
var ErrProductNotFound = errors.New("product not found")

// ErrPersistence is returned when the backing file can't be read or written.
// On write it may accompany a valid result: the in-memory change was applied.
var ErrPersistence = errors.New("catalog persistence failed")
