package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKittyID = errors.New("invalid kitty id")
	ErrSameKittyID    = errors.New("same kitty id")
	ErrNotOwner       = errors.New("caller is not the owner")
	ErrAlreadyOnSale  = errors.New("kitty already on sale")
	ErrNotOnSale      = errors.New("kitty not on sale")
	ErrAlreadyOwned   = errors.New("kitty already owned by buyer")

	// ErrKittyIDOverflow wraps ErrInvalidKittyID: id-space exhaustion is
	// reported as an invalid-id condition while keeping its own identity.
	ErrKittyIDOverflow = fmt.Errorf("kitty id space exhausted: %w", ErrInvalidKittyID)
)
