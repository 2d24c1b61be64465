package economy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

func TestNullEconomyRejectsBalanceMutations(t *testing.T) {
	eco := NewNullEconomy()
	ctx := context.Background()
	player := uuid.New()

	if err := eco.AddBalance(ctx, player, decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected add to fail without a backend")
	} else if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeConfig {
		t.Fatalf("expected %s, got %v", errors.CodeConfig, err)
	}

	if err := eco.RemoveBalance(ctx, player, decimal.NewFromInt(10)); err == nil {
		t.Fatal("expected remove to fail without a backend")
	}

	if _, err := eco.GetBalance(ctx, player); err == nil {
		t.Fatal("expected get to fail without a backend")
	}
}

func TestNullEconomyFormatsAmounts(t *testing.T) {
	eco := NewNullEconomy()
	if got := eco.FormatBalance(decimal.NewFromFloat(1234.5)); got != "1234.50" {
		t.Fatalf("unexpected format %q", got)
	}
}
