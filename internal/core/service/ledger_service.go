package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/core/genetics"
	"github.com/nqminh/kitty-market/internal/port"
)

// Registry is the state-transition core: kitty creation, breeding,
// ownership transfer, and the marketplace. Every operation commits all of
// its state writes atomically or none of them, and emits exactly one
// notification on success.
type Registry struct {
	store         port.StateStore
	seeds         port.SeedSource
	currency      port.CurrencyLedger
	price         uint64
	notifications chan domain.Notification
}

func NewRegistry(store port.StateStore, seeds port.SeedSource, currency port.CurrencyLedger, price uint64, queueSize int) *Registry {
	return &Registry{
		store:         store,
		seeds:         seeds,
		currency:      currency,
		price:         price,
		notifications: make(chan domain.Notification, queueSize),
	}
}

// Create mints a new kitty owned by owner, with a genome derived from a
// fresh random seed. Returns the allocated id.
func (s *Registry) Create(ctx context.Context, owner domain.AccountID) (domain.KittyID, error) {
	seed, err := s.seeds.Seed()
	if err != nil {
		return 0, fmt.Errorf("random seed: %w", err)
	}

	var (
		id     domain.KittyID
		genome domain.Genome
	)
	err = s.store.Update(ctx, func(tx port.StateTx) error {
		id, err = allocateID(tx)
		if err != nil {
			return err
		}

		genome = genetics.Derive(seed, owner, uint64(id))

		if err := tx.PutGenome(id, genome); err != nil {
			return fmt.Errorf("store genome: %w", err)
		}
		if err := tx.SetOwner(id, owner); err != nil {
			return fmt.Errorf("store owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notify(domain.Notification{
		Kind:    domain.NotificationCreated,
		Actor:   owner,
		KittyID: id,
		Genome:  &genome,
	})
	return id, nil
}

// Breed derives a child kitty from two existing parents. The child's genome
// takes each bit from parentA or parentB according to a freshly derived
// selection mask. The caller becomes the child's owner and need not own
// either parent.
func (s *Registry) Breed(ctx context.Context, owner domain.AccountID, parentA, parentB domain.KittyID) (domain.KittyID, error) {
	if parentA == parentB {
		return 0, domain.ErrSameKittyID
	}

	seed, err := s.seeds.Seed()
	if err != nil {
		return 0, fmt.Errorf("random seed: %w", err)
	}

	var (
		id    domain.KittyID
		child domain.Genome
	)
	err = s.store.Update(ctx, func(tx port.StateTx) error {
		genomeA, ok, err := tx.Genome(parentA)
		if err != nil {
			return fmt.Errorf("read parent %d: %w", parentA, err)
		}
		if !ok {
			return domain.ErrInvalidKittyID
		}
		genomeB, ok, err := tx.Genome(parentB)
		if err != nil {
			return fmt.Errorf("read parent %d: %w", parentB, err)
		}
		if !ok {
			return domain.ErrInvalidKittyID
		}

		id, err = allocateID(tx)
		if err != nil {
			return err
		}

		mask := genetics.Derive(seed, owner, uint64(id))
		child = genetics.Crossover(genomeA, genomeB, mask)

		if err := tx.PutGenome(id, child); err != nil {
			return fmt.Errorf("store genome: %w", err)
		}
		if err := tx.SetOwner(id, owner); err != nil {
			return fmt.Errorf("store owner: %w", err)
		}
		if err := tx.SetParents(id, domain.Parents{A: parentA, B: parentB}); err != nil {
			return fmt.Errorf("store parents: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notify(domain.Notification{
		Kind:    domain.NotificationBred,
		Actor:   owner,
		KittyID: id,
		Genome:  &child,
	})
	return id, nil
}

// Transfer reassigns ownership of a kitty to another account. Only the
// current owner may transfer. An active listing, if any, is left in place.
func (s *Registry) Transfer(ctx context.Context, caller, to domain.AccountID, id domain.KittyID) error {
	err := s.store.Update(ctx, func(tx port.StateTx) error {
		owner, ok, err := tx.Owner(id)
		if err != nil {
			return fmt.Errorf("read owner: %w", err)
		}
		if !ok {
			return domain.ErrInvalidKittyID
		}
		if owner != caller {
			return domain.ErrNotOwner
		}
		if err := tx.SetOwner(id, to); err != nil {
			return fmt.Errorf("store owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.Notification{
		Kind:         domain.NotificationTransferred,
		Actor:        caller,
		KittyID:      id,
		Counterparty: &to,
	})
	return nil
}

// Notifications exposes the stream of completed transitions.
func (s *Registry) Notifications() <-chan domain.Notification {
	return s.notifications
}

// Close closes the notification stream. No operation may be invoked after
// Close.
func (s *Registry) Close() {
	close(s.notifications)
}

// allocateID hands out the next kitty id and advances the counter. When the
// counter cannot advance without overflowing, the allocation is rejected
// and the counter left untouched.
func allocateID(tx port.StateTx) (domain.KittyID, error) {
	next, err := tx.NextID()
	if err != nil {
		return 0, fmt.Errorf("read next kitty id: %w", err)
	}
	if next == math.MaxUint32 {
		return 0, domain.ErrKittyIDOverflow
	}
	if err := tx.SetNextID(next + 1); err != nil {
		return 0, fmt.Errorf("advance next kitty id: %w", err)
	}
	return next, nil
}

func (s *Registry) notify(n domain.Notification) {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()
	s.notifications <- n
}
