package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/internal/auctionhouse"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	"github.com/cosmicpe/auctionhouse-backend/pkg/types"
)

type stubHouse struct {
	sell     func(ctx context.Context, seller auctionhouse.Actor, req auctionhouse.SellRequest) (*auctionhouse.ListingView, error)
	confirm  func(ctx context.Context, buyer auctionhouse.Actor, listingID uuid.UUID, expectedPrice decimal.Decimal, recipient auctionhouse.Recipient) (*auctionhouse.ConfirmResult, error)
	placeBid func(ctx context.Context, bidder auctionhouse.Actor, listingID uuid.UUID, offer decimal.Decimal) (*auctionhouse.ListingView, error)
	withdraw func(ctx context.Context, seller auctionhouse.Actor, listingID uuid.UUID) error
	claim    func(ctx context.Context, claimant auctionhouse.Actor, itemID int64, recipient auctionhouse.Recipient) error
	claimAll func(ctx context.Context, claimant auctionhouse.Actor, recipient auctionhouse.Recipient) (int, error)
	browse   func(ctx context.Context, page int) (*auctionhouse.ListingPage, error)
	lookup   func(ctx context.Context, name string) (*auctionhouse.PlayerView, error)
	sold     func(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]auctionhouse.SaleView, error)
}

func (s *stubHouse) Sell(ctx context.Context, seller auctionhouse.Actor, req auctionhouse.SellRequest) (*auctionhouse.ListingView, error) {
	return s.sell(ctx, seller, req)
}

func (s *stubHouse) Confirm(ctx context.Context, buyer auctionhouse.Actor, listingID uuid.UUID, expectedPrice decimal.Decimal, recipient auctionhouse.Recipient) (*auctionhouse.ConfirmResult, error) {
	return s.confirm(ctx, buyer, listingID, expectedPrice, recipient)
}

func (s *stubHouse) PlaceBid(ctx context.Context, bidder auctionhouse.Actor, listingID uuid.UUID, offer decimal.Decimal) (*auctionhouse.ListingView, error) {
	return s.placeBid(ctx, bidder, listingID, offer)
}

func (s *stubHouse) Withdraw(ctx context.Context, seller auctionhouse.Actor, listingID uuid.UUID) error {
	return s.withdraw(ctx, seller, listingID)
}

func (s *stubHouse) Claim(ctx context.Context, claimant auctionhouse.Actor, itemID int64, recipient auctionhouse.Recipient) error {
	return s.claim(ctx, claimant, itemID, recipient)
}

func (s *stubHouse) ClaimAll(ctx context.Context, claimant auctionhouse.Actor, recipient auctionhouse.Recipient) (int, error) {
	return s.claimAll(ctx, claimant, recipient)
}

func (s *stubHouse) BrowsePage(ctx context.Context, page int) (*auctionhouse.ListingPage, error) {
	return s.browse(ctx, page)
}

func (s *stubHouse) Groups(ctx context.Context, page int) (*auctionhouse.GroupPage, error) {
	panic("not implemented")
}

func (s *stubHouse) Group(ctx context.Context, kind string, meta, page int) (*auctionhouse.ListingPage, error) {
	panic("not implemented")
}

func (s *stubHouse) GetListing(ctx context.Context, id uuid.UUID) (*auctionhouse.ListingView, error) {
	panic("not implemented")
}

func (s *stubHouse) PlayerListings(ctx context.Context, sellerID uuid.UUID) ([]auctionhouse.ListingView, error) {
	panic("not implemented")
}

func (s *stubHouse) CollectionBin(ctx context.Context, playerID uuid.UUID) ([]auctionhouse.BinView, error) {
	panic("not implemented")
}

func (s *stubHouse) SaleLogs(ctx context.Context, page int) (*auctionhouse.SalePage, error) {
	panic("not implemented")
}

func (s *stubHouse) PlayerSaleLogs(ctx context.Context, playerID uuid.UUID, page int) (*auctionhouse.SalePage, error) {
	panic("not implemented")
}

func (s *stubHouse) PlayerSalesWithin(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]auctionhouse.SaleView, error) {
	return s.sold(ctx, sellerID, from, to)
}

func (s *stubHouse) PlayerStats(ctx context.Context, playerID uuid.UUID) (*auctionhouse.PlayerView, error) {
	panic("not implemented")
}

func (s *stubHouse) LookupPlayer(ctx context.Context, name string) (*auctionhouse.PlayerView, error) {
	return s.lookup(ctx, name)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newListingRequest(t *testing.T, method, target, listingID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("listingID", listingID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}
