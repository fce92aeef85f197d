package service

import (
	"context"
	"fmt"

	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/port"
)

// Sale lists a kitty for purchase at the configured price. Only the current
// owner may list, and only once.
func (s *Registry) Sale(ctx context.Context, caller domain.AccountID, id domain.KittyID) error {
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

		_, listed, err := tx.Listing(id)
		if err != nil {
			return fmt.Errorf("read listing: %w", err)
		}
		if listed {
			return domain.ErrAlreadyOnSale
		}

		if err := tx.PutListing(id, caller); err != nil {
			return fmt.Errorf("store listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.Notification{
		Kind:    domain.NotificationOnSale,
		Actor:   caller,
		KittyID: id,
	})
	return nil
}

// Buy purchases a listed kitty: the configured price moves from the buyer
// to the recorded owner, the listing is cleared, and ownership passes to
// the buyer, all in one transition. A failed currency transfer aborts with
// no state change.
func (s *Registry) Buy(ctx context.Context, caller domain.AccountID, id domain.KittyID) error {
	var seller domain.AccountID
	err := s.store.Update(ctx, func(tx port.StateTx) error {
		_, listed, err := tx.Listing(id)
		if err != nil {
			return fmt.Errorf("read listing: %w", err)
		}
		if !listed {
			return domain.ErrNotOnSale
		}

		owner, ok, err := tx.Owner(id)
		if err != nil {
			return fmt.Errorf("read owner: %w", err)
		}
		if !ok {
			return domain.ErrInvalidKittyID
		}
		if owner == caller {
			return domain.ErrAlreadyOwned
		}

		if err := s.currency.Transfer(ctx, caller, owner, s.price); err != nil {
			return fmt.Errorf("settle purchase: %w", err)
		}
		seller = owner

		if err := tx.RemoveListing(id); err != nil {
			return fmt.Errorf("remove listing: %w", err)
		}
		if err := tx.SetOwner(id, caller); err != nil {
			return fmt.Errorf("store owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.Notification{
		Kind:         domain.NotificationBought,
		Actor:        caller,
		KittyID:      id,
		Counterparty: &seller,
		Price:        s.price,
	})
	return nil
}

// Listings returns the active listings in ascending kitty id order.
func (s *Registry) Listings(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.store.View(ctx, func(r port.StateReader) error {
		return r.ForEachListing(func(id domain.KittyID, seller domain.AccountID) error {
			out = append(out, domain.Listing{KittyID: id, Seller: seller})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Kitty returns the ledger view of one kitty.
func (s *Registry) Kitty(ctx context.Context, id domain.KittyID) (domain.Kitty, error) {
	var k domain.Kitty
	err := s.store.View(ctx, func(r port.StateReader) error {
		genome, ok, err := r.Genome(id)
		if err != nil {
			return fmt.Errorf("read genome: %w", err)
		}
		if !ok {
			return domain.ErrInvalidKittyID
		}

		owner, _, err := r.Owner(id)
		if err != nil {
			return fmt.Errorf("read owner: %w", err)
		}
		parents, hasParents, err := r.Parents(id)
		if err != nil {
			return fmt.Errorf("read parents: %w", err)
		}
		_, listed, err := r.Listing(id)
		if err != nil {
			return fmt.Errorf("read listing: %w", err)
		}

		k = domain.Kitty{ID: id, Genome: genome, Owner: owner, OnSale: listed}
		if hasParents {
			p := parents
			k.Parents = &p
		}
		return nil
	})
	if err != nil {
		return domain.Kitty{}, err
	}
	return k, nil
}
