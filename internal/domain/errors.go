package domain

import "fmt"

// InputError means the source document could not be read.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// EmbeddingError means the embedding service call failed.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding %s: %v", e.Op, e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError means the vector store rejected an operation: connectivity,
// schema, or a vector dimensionality mismatch.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("vector store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// CompletionError means the answer-generation call failed.
type CompletionError struct {
	Op  string
	Err error
}

func (e *CompletionError) Error() string { return fmt.Sprintf("completion %s: %v", e.Op, e.Err) }
func (e *CompletionError) Unwrap() error { return e.Err }
