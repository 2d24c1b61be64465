package economy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

// NullEconomy is the placeholder backend used when no economy integration is
// configured. Every balance mutation fails, which keeps sell and buy flows
// from moving items while money cannot move.
type NullEconomy struct{}

func NewNullEconomy() *NullEconomy {
	return &NullEconomy{}
}

func (NullEconomy) AddBalance(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	return errors.New(errors.CodeConfig, "no economy backend configured")
}

func (NullEconomy) RemoveBalance(ctx context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	return errors.New(errors.CodeConfig, "no economy backend configured")
}

func (NullEconomy) GetBalance(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, errors.New(errors.CodeConfig, "no economy backend configured")
}

func (NullEconomy) FormatBalance(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
