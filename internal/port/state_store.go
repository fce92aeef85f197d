package port

import (
	"context"

	"github.com/nqminh/kitty-market/internal/core/domain"
)

// StateReader provides read access to the ledger's keyed maps.
type StateReader interface {
	// NextID returns the smallest kitty id not yet allocated.
	NextID() (domain.KittyID, error)

	Genome(id domain.KittyID) (domain.Genome, bool, error)
	Owner(id domain.KittyID) (domain.AccountID, bool, error)
	Parents(id domain.KittyID) (domain.Parents, bool, error)

	// Listing returns the account that listed the kitty; the bool reports
	// whether a listing exists.
	Listing(id domain.KittyID) (domain.AccountID, bool, error)

	// ForEachListing visits active listings in ascending id order.
	ForEachListing(fn func(id domain.KittyID, seller domain.AccountID) error) error
}

// StateTx extends StateReader with writes. All writes performed inside one
// Update call are applied atomically, or not at all if the update fails.
type StateTx interface {
	StateReader

	SetNextID(id domain.KittyID) error
	PutGenome(id domain.KittyID, g domain.Genome) error
	SetOwner(id domain.KittyID, owner domain.AccountID) error
	SetParents(id domain.KittyID, p domain.Parents) error
	PutListing(id domain.KittyID, seller domain.AccountID) error
	RemoveListing(id domain.KittyID) error
}

// StateStore is the transactional key-value store holding the ledger state.
type StateStore interface {
	// View runs fn with a read-only snapshot.
	View(ctx context.Context, fn func(StateReader) error) error

	// Update runs fn and commits every staged write if and only if fn
	// returns nil; any error discards all of them.
	Update(ctx context.Context, fn func(StateTx) error) error
}
