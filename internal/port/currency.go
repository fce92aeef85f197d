package port

import (
	"context"
	"errors"

	"github.com/nqminh/kitty-market/internal/core/domain"
)

// ErrInsufficientFunds indicates the payer cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// CurrencyLedger moves balances between accounts. Transfer is atomic:
// either the full amount moves or the call fails with no effect.
type CurrencyLedger interface {
	Transfer(ctx context.Context, from, to domain.AccountID, amount uint64) error
}
