// Package orders implements pharmacy reservations: pricing, availability,
// order codes and the stores reservations are kept in.
package orders

import "errors"

var (
	// ErrPharmacyNotFound is returned for an unknown pharmacy id
	ErrPharmacyNotFound = errors.New("pharmacy not found")
	// ErrNoItems is returned when no requested item has a trade name
	ErrNoItems = errors.New("order has no valid items")
	// ErrOrderNotFound is returned by stores for an unknown order code
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateCode is returned by stores when the order code is taken
	ErrDuplicateCode = errors.New("order code already exists")
)
