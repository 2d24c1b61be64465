package economy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Economy abstracts the currency backend the marketplace debits and credits.
// Implementations must reject withdrawals that would leave a negative balance.
type Economy interface {
	AddBalance(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error
	RemoveBalance(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error
	GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error)
	FormatBalance(amount decimal.Decimal) string
}
