package services

import (
	"fmt"

	"github.com/gststore/storefront-backend/models"
)

// ValidationError means the input itself is malformed or missing a
// required field. Nothing is persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError means the order's current status disallows the
// requested operation.
type InvalidStateError struct {
	Status models.OrderStatus
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Op, e.Status)
}

// InvalidOperationError means the operation is valid in general but not
// for this order's attributes (wrong payment method, double collection).
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return e.Reason
}

// ForbiddenError means the requester is neither the order's owner nor
// an administrator.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// NotFoundError means a referenced order or product does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
