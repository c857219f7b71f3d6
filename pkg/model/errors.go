package model

import (
	"errors"
	"fmt"
)

// Error kinds reported by the mind-map core. Test with errors.Is.
var (
	// ErrUnknownNode indicates an operation referenced a key absent from the model.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateKey indicates two nodes share a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCyclicParent indicates a parent assignment that forms a cycle.
	ErrCyclicParent = errors.New("cyclic parent")

	// ErrTransactionState indicates a mutation outside an open transaction,
	// a nested Begin, or undo/redo with an empty stack.
	ErrTransactionState = errors.New("invalid transaction state")

	// ErrInvariantViolation indicates the tree failed its structural checks.
	ErrInvariantViolation = errors.New("invariant violation")
)

// NodeError records the operation and key that failed.
type NodeError struct {
	Op  string
	Key int
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %d: %v", e.Op, e.Key, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// UnknownNode builds the error returned when key is absent.
func UnknownNode(op string, key int) error {
	return &NodeError{Op: op, Key: key, Err: ErrUnknownNode}
}
