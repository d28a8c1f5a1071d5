package quote

import (
	"errors"
	"fmt"
)

var (
	// ErrNoItems is reported for a quote with an empty item list.
	ErrNoItems = errors.New("quote has no items")
	// ErrCursorOutOfRange is reported when the active item index is not a valid item.
	ErrCursorOutOfRange = errors.New("active item index out of range")
	// ErrColorsDiverged is reported when an item marked same-color has a different interior.
	ErrColorsDiverged = errors.New("interior differs from exterior on same-color item")
	// ErrBadQuantity is reported for an item quantity below one.
	ErrBadQuantity = errors.New("item quantity below one")
)

// Validate checks the structural invariants of q and joins every violation.
func Validate(q Quote) error {
	var errs []error
	if len(q.Items) == 0 {
		errs = append(errs, ErrNoItems)
	} else if q.ActiveItemIndex < 0 || q.ActiveItemIndex >= len(q.Items) {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrCursorOutOfRange, q.ActiveItemIndex, len(q.Items)))
	}
	for i, it := range q.Items {
		if it.Colors.IsSame && it.Colors.Interior != it.Colors.Exterior {
			errs = append(errs, fmt.Errorf("item %d: %w", i, ErrColorsDiverged))
		}
		if it.Quantity < 1 {
			errs = append(errs, fmt.Errorf("item %d: %w", i, ErrBadQuantity))
		}
	}
	return errors.Join(errs...)
}

// ensureInvariants restores the list and cursor invariants without touching
// anything else: an empty list gains one default item and the cursor is clamped.
func ensureInvariants(q Quote, newItem func(systemType string) Item) Quote {
	if len(q.Items) == 0 {
		q.Items = []Item{newItem("")}
	}
	if q.ActiveItemIndex < 0 {
		q.ActiveItemIndex = 0
	}
	if q.ActiveItemIndex >= len(q.Items) {
		q.ActiveItemIndex = len(q.Items) - 1
	}
	return q
}
