package models

import "errors"

// Business-rule rejections. Handlers match these with errors.Is and map them
// to HTTP statuses; wrap with fmt.Errorf("%w: detail") to add context.
var (
	// ErrInsufficientStock: a reservation or consumption would exceed available stock
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrItemElsewhere: the inventory unit is already committed to another open suitcase
	ErrItemElsewhere = errors.New("item committed to another suitcase")

	// ErrSettlementAlreadyPending: one non-concluded acerto per suitcase, enforced
	// both here and by a partial unique index
	ErrSettlementAlreadyPending = errors.New("settlement already pending for suitcase")

	// ErrDuplicateCode: suitcase code already in use among active suitcases
	ErrDuplicateCode = errors.New("suitcase code already in use")

	// ErrCascadeBlocked: deletion refused while dependent records exist
	ErrCascadeBlocked = errors.New("deletion blocked by dependent records")

	// ErrInvalidTransition: status change not present in the transition table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation: malformed caller input, operation not attempted
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: the referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrImmutable: concluded settlements only accept a receipt URL
	ErrImmutable = errors.New("record is immutable")
)
