package auctionhouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	"github.com/cosmicpe/auctionhouse-backend/pkg/outbox"
	"github.com/cosmicpe/auctionhouse-backend/pkg/policy"
)

// Actor is the player performing a marketplace operation, with the
// permissions the policy evaluators resolve against.
type Actor struct {
	ID          uuid.UUID
	Name        string
	Permissions []string
}

// HasPermission satisfies policy.Subject.
func (a Actor) HasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Recipient is the delivery surface for items leaving the house. A recipient
// that went unreachable between request and settlement causes the operation
// to abort or fall back to the collection bin, never to drop the item.
type Recipient interface {
	Reachable() bool
	Deliver(ctx context.Context, item *models.ItemBlob) error
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter appends domain events to the transactional outbox.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Policies groups the permission-gated knobs consulted on every sell.
type Policies struct {
	SellPriceMin   *policy.Evaluator[decimal.Decimal]
	SellPriceMax   *policy.Evaluator[decimal.Decimal]
	SellTaxRate    *policy.Evaluator[decimal.Decimal]
	MaxListings    *policy.Evaluator[int]
	ExpiryDuration *policy.Evaluator[time.Duration]
}

// PoliciesFromConfig builds single-entry evaluators granting every player the
// configured defaults. Deployments layer permission entries on top.
func PoliciesFromConfig(cfg config.AuctionConfig) Policies {
	return Policies{
		SellPriceMin:   policy.Fallback("sell_price_min", cfg.SellPriceMin),
		SellPriceMax:   policy.Fallback("sell_price_max", cfg.SellPriceMax),
		SellTaxRate:    policy.Fallback("sell_tax_rate", cfg.SellTaxRatePct),
		MaxListings:    policy.Fallback("max_listings", cfg.MaxListings),
		ExpiryDuration: policy.Fallback("expiry_duration", cfg.ExpiryDuration),
	}
}
