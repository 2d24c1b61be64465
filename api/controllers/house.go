package controllers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/internal/auctionhouse"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

// House is the slice of the marketplace engine the HTTP layer consumes.
type House interface {
	Sell(ctx context.Context, seller auctionhouse.Actor, req auctionhouse.SellRequest) (*auctionhouse.ListingView, error)
	Confirm(ctx context.Context, buyer auctionhouse.Actor, listingID uuid.UUID, expectedPrice decimal.Decimal, recipient auctionhouse.Recipient) (*auctionhouse.ConfirmResult, error)
	PlaceBid(ctx context.Context, bidder auctionhouse.Actor, listingID uuid.UUID, offer decimal.Decimal) (*auctionhouse.ListingView, error)
	Withdraw(ctx context.Context, seller auctionhouse.Actor, listingID uuid.UUID) error
	Claim(ctx context.Context, claimant auctionhouse.Actor, itemID int64, recipient auctionhouse.Recipient) error
	ClaimAll(ctx context.Context, claimant auctionhouse.Actor, recipient auctionhouse.Recipient) (int, error)

	BrowsePage(ctx context.Context, page int) (*auctionhouse.ListingPage, error)
	Groups(ctx context.Context, page int) (*auctionhouse.GroupPage, error)
	Group(ctx context.Context, kind string, meta, page int) (*auctionhouse.ListingPage, error)
	GetListing(ctx context.Context, id uuid.UUID) (*auctionhouse.ListingView, error)
	PlayerListings(ctx context.Context, sellerID uuid.UUID) ([]auctionhouse.ListingView, error)
	CollectionBin(ctx context.Context, playerID uuid.UUID) ([]auctionhouse.BinView, error)
	SaleLogs(ctx context.Context, page int) (*auctionhouse.SalePage, error)
	PlayerSaleLogs(ctx context.Context, playerID uuid.UUID, page int) (*auctionhouse.SalePage, error)
	PlayerSalesWithin(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]auctionhouse.SaleView, error)
	PlayerStats(ctx context.Context, playerID uuid.UUID) (*auctionhouse.PlayerView, error)
	LookupPlayer(ctx context.Context, name string) (*auctionhouse.PlayerView, error)
}

// actorRef identifies the player the game server is acting for.
type actorRef struct {
	PlayerID    string   `json:"playerId" validate:"required,uuid"`
	PlayerName  string   `json:"playerName" validate:"required"`
	Permissions []string `json:"permissions,omitempty"`
}

func (a actorRef) toActor() (auctionhouse.Actor, error) {
	id, err := uuid.Parse(strings.TrimSpace(a.PlayerID))
	if err != nil {
		return auctionhouse.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid player id")
	}
	return auctionhouse.Actor{ID: id, Name: a.PlayerName, Permissions: a.Permissions}, nil
}

// captureRecipient stands in for the player on the game server side. When the
// caller marks the player offline the engine falls back to the collection bin.
type captureRecipient struct {
	online    bool
	delivered []*models.ItemBlob
}

func (r *captureRecipient) Reachable() bool {
	return r.online
}

func (r *captureRecipient) Deliver(_ context.Context, item *models.ItemBlob) error {
	r.delivered = append(r.delivered, item)
	return nil
}

// deliveryResult reports where the item ended up.
type deliveryResult struct {
	Delivered bool   `json:"delivered"`
	Payload   []byte `json:"payload,omitempty"`
}

func (r *captureRecipient) result() deliveryResult {
	if len(r.delivered) == 0 {
		return deliveryResult{Delivered: false}
	}
	return deliveryResult{Delivered: true, Payload: r.delivered[0].Payload}
}

func (r *captureRecipient) payloads() [][]byte {
	out := make([][]byte, 0, len(r.delivered))
	for _, item := range r.delivered {
		out = append(out, item.Payload)
	}
	return out
}

func parseListingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "listingID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
	}
	return id, nil
}

func parsePlayerID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "playerID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "player id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid player id")
	}
	return id, nil
}

func decodePayload(encoded string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "item payload must be base64")
	}
	return payload, nil
}

func durationFromSeconds(seconds *int64) *time.Duration {
	if seconds == nil {
		return nil
	}
	d := time.Duration(*seconds) * time.Second
	return &d
}
