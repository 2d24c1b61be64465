package auctionhouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/internal/bin"
	"github.com/cosmicpe/auctionhouse-backend/internal/economy"
	"github.com/cosmicpe/auctionhouse-backend/internal/items"
	"github.com/cosmicpe/auctionhouse-backend/internal/ledger"
	"github.com/cosmicpe/auctionhouse-backend/internal/listings"
	"github.com/cosmicpe/auctionhouse-backend/internal/players"
	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	"github.com/cosmicpe/auctionhouse-backend/pkg/enums"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	"github.com/cosmicpe/auctionhouse-backend/pkg/outbox"
	"github.com/cosmicpe/auctionhouse-backend/pkg/pagination"
)

const eventVersion = 1

// ServiceParams groups dependencies for the auction house engine.
type ServiceParams struct {
	Logger   *logger.Logger
	DB       TxRunner
	Listings listings.Repository
	Items    items.Repository
	Bin      bin.Repository
	Sales    ledger.Repository
	Players  players.Repository
	Economy  economy.Economy
	Outbox   EventEmitter
	Policies Policies
	Auction  config.AuctionConfig

	// Now overrides the clock, Fatal overrides the storage failure hook.
	// Both default to production behavior when nil.
	Now   func() time.Time
	Fatal func(error)
}

// Service is the marketplace engine. All mutating operations and cache reads
// serialize on a single process-wide mutex, which is what makes the
// check-then-act sequences (confirm, bid, withdraw, claim) safe.
type Service struct {
	mu    sync.Mutex
	cache *houseCache

	logg     *logger.Logger
	tx       TxRunner
	listings listings.Repository
	items    items.Repository
	bin      bin.Repository
	sales    ledger.Repository
	players  players.Repository
	economy  economy.Economy
	outbox   EventEmitter
	policies Policies
	auction  config.AuctionConfig

	now   func() time.Time
	fatal func(error)
}

// NewService validates the dependency set and builds the engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Listings == nil {
		return nil, errors.New("listings repository is required")
	}
	if params.Items == nil {
		return nil, errors.New("items repository is required")
	}
	if params.Bin == nil {
		return nil, errors.New("bin repository is required")
	}
	if params.Sales == nil {
		return nil, errors.New("sales repository is required")
	}
	if params.Players == nil {
		return nil, errors.New("players repository is required")
	}
	if params.Economy == nil {
		return nil, errors.New("economy backend is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	if params.Policies.SellPriceMin == nil || params.Policies.SellPriceMax == nil ||
		params.Policies.SellTaxRate == nil || params.Policies.MaxListings == nil ||
		params.Policies.ExpiryDuration == nil {
		return nil, errors.New("all policy evaluators are required")
	}

	s := &Service{
		cache:    newHouseCache(),
		logg:     params.Logger,
		tx:       params.DB,
		listings: params.Listings,
		items:    params.Items,
		bin:      params.Bin,
		sales:    params.Sales,
		players:  params.Players,
		economy:  params.Economy,
		outbox:   params.Outbox,
		policies: params.Policies,
		auction:  params.Auction,
		now:      params.Now,
		fatal:    params.Fatal,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.fatal == nil {
		s.fatal = func(err error) {
			s.logg.Error(context.Background(), "unrecoverable storage failure, shutting down", err)
			os.Exit(1)
		}
	}
	return s, nil
}

// storage funnels unexpected persistence failures through the fatal hook.
// The returned error only matters when the hook does not terminate.
func (s *Service) storage(err error, op string) error {
	if err == nil {
		return nil
	}
	s.fatal(fmt.Errorf("%s: %w", op, err))
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

// SellRequest carries everything needed to list an item.
type SellRequest struct {
	Payload  []byte
	Kind     string
	Meta     int
	Price    decimal.Decimal
	Auction  bool
	Duration *time.Duration
}

// Sell lists an item for direct sale or auction. The listing tax, when one
// applies, is charged before any state changes and refunded if persistence
// fails.
func (s *Service) Sell(ctx context.Context, seller Actor, req SellRequest) (*ListingView, error) {
	ctx = s.logg.WithPlayerID(ctx, seller.ID.String())

	if len(req.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item payload is required")
	}
	if req.Kind == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item kind is required")
	}

	minPrice, err := s.policies.SellPriceMin.Evaluate(seller)
	if err != nil {
		return nil, err
	}
	maxPrice, err := s.policies.SellPriceMax.Evaluate(seller)
	if err != nil {
		return nil, err
	}
	if req.Price.LessThan(minPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price below minimum").
			WithDetails(map[string]any{"min": minPrice})
	}
	if req.Price.GreaterThan(maxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price above maximum").
			WithDetails(map[string]any{"max": maxPrice})
	}

	now := s.now().UTC()
	expiryDuration, err := s.policies.ExpiryDuration.Evaluate(seller)
	if err != nil {
		return nil, err
	}
	if req.Duration != nil {
		if !req.Auction {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "custom duration is only valid for auctions")
		}
		if *req.Duration < s.auction.BidDurationMin || *req.Duration > s.auction.BidDurationMax {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction duration out of bounds").
				WithDetails(map[string]any{
					"min": s.auction.BidDurationMin.String(),
					"max": s.auction.BidDurationMax.String(),
				})
		}
		expiryDuration = *req.Duration
	}
	expiry := now.Add(expiryDuration)

	maxListings, err := s.policies.MaxListings.Evaluate(seller)
	if err != nil {
		return nil, err
	}
	stats, err := s.players.Stats(ctx, seller.ID)
	if err != nil {
		return nil, s.storage(err, "loading seller stats")
	}
	if stats.Listings+stats.Binned >= int64(maxListings) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing capacity reached").
			WithDetails(map[string]any{"max": maxListings, "listings": stats.Listings, "binned": stats.Binned})
	}

	taxRate, err := s.policies.SellTaxRate.Evaluate(seller)
	if err != nil {
		return nil, err
	}
	tax := req.Price.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)

	if err := s.players.Upsert(ctx, &models.Player{ID: seller.ID, Name: seller.Name}); err != nil {
		return nil, s.storage(err, "upserting seller")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tax.IsPositive() {
		if err := s.economy.RemoveBalance(ctx, seller.ID, tax); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeEconomy, err, "listing tax could not be charged")
		}
	}

	item := &models.ItemBlob{Payload: req.Payload, Kind: req.Kind, Meta: req.Meta}
	listing := &models.Listing{
		ID:          uuid.New(),
		SellerID:    seller.ID,
		SellerName:  seller.Name,
		Price:       req.Price,
		ListingTime: now,
		ExpiryTime:  expiry,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.items.WithTx(tx).Add(ctx, item); err != nil {
			return err
		}
		listing.ItemID = item.ID
		if req.Auction {
			listing.Bid = &models.BidRecord{ListingID: listing.ID, Offer: req.Price}
		}
		if err := s.listings.WithTx(tx).Add(ctx, listing); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingCreated,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{PlayerID: seller.ID, Name: seller.Name},
			Version:       eventVersion,
			Data: outbox.ListingEventData{
				ListingID:  listing.ID,
				SellerID:   seller.ID,
				SellerName: seller.Name,
				Kind:       req.Kind,
				Meta:       req.Meta,
				Price:      req.Price,
				Auction:    req.Auction,
				ExpiryTime: expiry,
			},
		})
	})
	if err != nil {
		if tax.IsPositive() {
			if refundErr := s.economy.AddBalance(ctx, seller.ID, tax); refundErr != nil {
				s.logg.Error(ctx, "listing tax refund failed", refundErr)
			}
		}
		return nil, s.storage(err, "persisting listing")
	}

	listing.Item = item
	s.cache.putListing(listing)

	s.logg.Info(s.logg.WithListingID(ctx, listing.ID.String()), "listing created")
	view := listingView(listing)
	return &view, nil
}

// ConfirmResult reports how a confirmation resolved: a completed buy-now
// sale, or the listing after the confirmed bid was recorded.
type ConfirmResult struct {
	Sale *SaleView
	Bid  *ListingView
}

// Confirm commits what the player saw on the confirmation screen: a buy-now
// purchase, or a bid at the shown price on an auction listing. The listing is
// re-validated under the lock because the snapshot may have gone stale.
func (s *Service) Confirm(ctx context.Context, buyer Actor, listingID uuid.UUID, expectedPrice decimal.Decimal, recipient Recipient) (*ConfirmResult, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"player_id":  buyer.ID.String(),
		"listing_id": listingID.String(),
	})

	if err := s.players.Upsert(ctx, &models.Player{ID: buyer.ID, Name: buyer.Name}); err != nil {
		return nil, s.storage(err, "upserting buyer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.loadListingLocked(ctx, listingID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if listing == nil || listing.Expired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStale, "listing is no longer available")
	}
	if listing.IsAuction() {
		bid, err := s.placeBidLocked(ctx, buyer, listing, expectedPrice, now)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{Bid: bid}, nil
	}
	if listing.SellerID == buyer.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot buy your own listing")
	}
	if !listing.Price.Equal(expectedPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeStale, "listing price changed").
			WithDetails(map[string]any{"price": listing.Price})
	}

	if err := s.economy.RemoveBalance(ctx, buyer.ID, listing.Price); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEconomy, err, "purchase could not be charged")
	}
	if !recipient.Reachable() {
		if refundErr := s.economy.AddBalance(ctx, buyer.ID, listing.Price); refundErr != nil {
			s.logg.Error(ctx, "purchase refund failed", refundErr)
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "buyer is no longer reachable")
	}

	item, err := s.loadItemLocked(ctx, listing.ItemID)
	if err != nil {
		return nil, err
	}

	record := &models.SaleRecord{
		ID:         uuid.New(),
		ListingID:  listing.ID,
		SellerID:   listing.SellerID,
		SellerName: listing.SellerName,
		BuyerID:    buyer.ID,
		BuyerName:  buyer.Name,
		Kind:       item.Kind,
		Meta:       item.Meta,
		Price:      listing.Price,
		SaleType:   enums.SaleBuyNow,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.listings.WithTx(tx).Remove(ctx, listing.ID); err != nil {
			return err
		}
		if err := s.sales.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingSold,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{PlayerID: buyer.ID, Name: buyer.Name},
			Version:       eventVersion,
			Data: outbox.SaleEventData{
				ListingID: listing.ID,
				SellerID:  listing.SellerID,
				BuyerID:   buyer.ID,
				BuyerName: buyer.Name,
				Price:     listing.Price,
			},
		})
	})
	if err != nil {
		if refundErr := s.economy.AddBalance(ctx, buyer.ID, listing.Price); refundErr != nil {
			s.logg.Error(ctx, "purchase refund failed", refundErr)
		}
		return nil, s.storage(err, "persisting sale")
	}

	s.cache.evictListing(listing.ID)

	if err := s.economy.AddBalance(ctx, listing.SellerID, listing.Price); err != nil {
		s.logg.Error(ctx, "seller payout failed", err)
	}

	s.deliverOrBin(ctx, buyer.ID, item, recipient)

	s.logg.Info(ctx, "listing sold")
	view := saleView(record)
	return &ConfirmResult{Sale: &view}, nil
}

// PlaceBid escrows the offer, refunds the previous bidder, and records the
// new high bid. A disconnect after the charge does not rescind the bid.
func (s *Service) PlaceBid(ctx context.Context, bidder Actor, listingID uuid.UUID, offer decimal.Decimal) (*ListingView, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"player_id":  bidder.ID.String(),
		"listing_id": listingID.String(),
	})

	if err := s.players.Upsert(ctx, &models.Player{ID: bidder.ID, Name: bidder.Name}); err != nil {
		return nil, s.storage(err, "upserting bidder")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.loadListingLocked(ctx, listingID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if listing == nil || listing.Expired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStale, "listing is no longer available")
	}
	if !listing.IsAuction() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing does not accept bids")
	}
	return s.placeBidLocked(ctx, bidder, listing, offer, now)
}

// placeBidLocked runs the bid sequence against a live auction listing.
// Callers hold the mutex and have already ruled out stale listings.
func (s *Service) placeBidLocked(ctx context.Context, bidder Actor, listing *models.Listing, offer decimal.Decimal, now time.Time) (*ListingView, error) {
	if listing.SellerID == bidder.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot bid on your own listing")
	}
	if listing.Bid.HasBidder() && *listing.Bid.BidderID == bidder.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "already the highest bidder")
	}
	minOffer := listing.Price
	if listing.Bid.HasBidder() {
		// price tracks the standing offer, the next bid must beat it
		if !offer.GreaterThan(minOffer) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid must beat the standing offer").
				WithDetails(map[string]any{"standing": minOffer})
		}
	} else if offer.LessThan(minOffer) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid below the starting price").
			WithDetails(map[string]any{"starting": minOffer})
	}

	if err := s.economy.RemoveBalance(ctx, bidder.ID, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEconomy, err, "bid could not be charged")
	}

	var previousBidder *uuid.UUID
	var previousOffer decimal.Decimal
	if listing.Bid.HasBidder() {
		prev := *listing.Bid.BidderID
		previousBidder = &prev
		previousOffer = listing.Bid.Offer
	}

	placed := now
	bidderName := bidder.Name
	newBid := &models.BidRecord{
		ListingID:  listing.ID,
		BidderID:   &bidder.ID,
		BidderName: &bidderName,
		Offer:      offer,
		PlacedAt:   &placed,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.listings.WithTx(tx).UpdateBid(ctx, listing.ID, newBid); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidPlaced,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{PlayerID: bidder.ID, Name: bidder.Name},
			Version:       eventVersion,
			Data: outbox.BidEventData{
				ListingID:  listing.ID,
				BidderID:   bidder.ID,
				BidderName: bidder.Name,
				Offer:      offer,
				Previous:   previousBidder,
			},
		}); err != nil {
			return err
		}
		if previousBidder == nil {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidOutbid,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Version:       eventVersion,
			Data: outbox.BidEventData{
				ListingID:  listing.ID,
				BidderID:   *previousBidder,
				BidderName: "",
				Offer:      previousOffer,
			},
		})
	})
	if err != nil {
		if refundErr := s.economy.AddBalance(ctx, bidder.ID, offer); refundErr != nil {
			s.logg.Error(ctx, "bid refund failed", refundErr)
		}
		return nil, s.storage(err, "persisting bid")
	}

	if previousBidder != nil {
		if refundErr := s.economy.AddBalance(ctx, *previousBidder, previousOffer); refundErr != nil {
			s.logg.Error(ctx, "outbid refund failed", refundErr)
		}
	}

	listing.Bid = newBid
	listing.Price = offer
	s.cache.putListing(listing)

	s.logg.Info(ctx, "bid placed")
	view := listingView(listing)
	return &view, nil
}

// Withdraw pulls a live listing back into the seller's collection bin. A
// standing bid is refunded from escrow.
func (s *Service) Withdraw(ctx context.Context, seller Actor, listingID uuid.UUID) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"player_id":  seller.ID.String(),
		"listing_id": listingID.String(),
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.loadListingLocked(ctx, listingID)
	if err != nil {
		return err
	}
	if listing == nil || listing.Expired(s.now().UTC()) {
		return pkgerrors.New(pkgerrors.CodeStale, "listing is no longer available")
	}
	if listing.SellerID != seller.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can withdraw a listing")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.listings.WithTx(tx).Remove(ctx, listing.ID); err != nil {
			return err
		}
		if err := s.bin.WithTx(tx).Add(ctx, &models.BinEntry{
			ItemID:        listing.ItemID,
			PlayerID:      seller.ID,
			PlacementTime: s.now().UTC(),
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingWithdrawn,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{PlayerID: seller.ID, Name: seller.Name},
			Version:       eventVersion,
			Data: outbox.ListingEventData{
				ListingID:  listing.ID,
				SellerID:   listing.SellerID,
				SellerName: listing.SellerName,
				Price:      listing.Price,
				Auction:    listing.IsAuction(),
				ExpiryTime: listing.ExpiryTime,
			},
		})
	})
	if err != nil {
		return s.storage(err, "withdrawing listing")
	}

	s.cache.evictListing(listing.ID)

	if listing.Bid.HasBidder() {
		if refundErr := s.economy.AddBalance(ctx, *listing.Bid.BidderID, listing.Bid.Offer); refundErr != nil {
			s.logg.Error(ctx, "withdraw bid refund failed", refundErr)
		}
	}

	s.logg.Info(ctx, "listing withdrawn")
	return nil
}

// Claim hands a binned item back to its owner. The bin row is removed before
// delivery and restored if delivery fails, so the item survives either way.
func (s *Service) Claim(ctx context.Context, claimant Actor, itemID int64, recipient Recipient) error {
	ctx = s.logg.WithPlayerID(ctx, claimant.ID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.bin.Get(ctx, itemID)
	if err != nil {
		return s.storage(err, "loading bin entry")
	}
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeStale, "item is no longer in the collection bin")
	}
	if entry.PlayerID != claimant.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another player")
	}
	if !recipient.Reachable() {
		return pkgerrors.New(pkgerrors.CodeDependency, "claimant is no longer reachable")
	}

	if err := s.claimEntryLocked(ctx, claimant, entry, recipient); err != nil {
		return err
	}

	s.logg.Info(ctx, "bin item claimed")
	return nil
}

// ClaimAll empties the claimant's collection bin. Items whose delivery fails
// stay binned; the rest are handed over. Returns the number delivered.
func (s *Service) ClaimAll(ctx context.Context, claimant Actor, recipient Recipient) (int, error) {
	ctx = s.logg.WithPlayerID(ctx, claimant.ID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	if !recipient.Reachable() {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "claimant is no longer reachable")
	}

	entries, err := s.bin.ListForPlayer(ctx, claimant.ID)
	if err != nil {
		return 0, s.storage(err, "loading collection bin")
	}

	claimed := 0
	for i := range entries {
		entry := &entries[i]
		if err := s.claimEntryLocked(ctx, claimant, entry, recipient); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "item_id", entry.ItemID), "claim failed, item stays binned")
			continue
		}
		claimed++
	}

	s.logg.Info(s.logg.WithField(ctx, "claimed", claimed), "collection bin claimed")
	return claimed, nil
}

// claimEntryLocked removes one bin row, emits the claim event, and delivers
// the payload. Delivery failure restores the row so the item survives.
func (s *Service) claimEntryLocked(ctx context.Context, claimant Actor, entry *models.BinEntry, recipient Recipient) error {
	item, err := s.loadItemLocked(ctx, entry.ItemID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.bin.WithTx(tx).Remove(ctx, entry.ItemID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBinItemClaimed,
			AggregateType: enums.AggregateBinEntry,
			AggregateID:   claimant.ID,
			Actor:         &outbox.ActorRef{PlayerID: claimant.ID, Name: claimant.Name},
			Version:       eventVersion,
			Data:          outbox.BinEventData{PlayerID: claimant.ID, ItemID: entry.ItemID},
		})
	})
	if err != nil {
		return s.storage(err, "claiming bin item")
	}

	if deliverErr := recipient.Deliver(ctx, item); deliverErr != nil {
		if restoreErr := s.bin.Add(ctx, &models.BinEntry{
			ItemID:        entry.ItemID,
			PlayerID:      entry.PlayerID,
			PlacementTime: s.now().UTC(),
		}); restoreErr != nil {
			s.fatal(fmt.Errorf("restoring bin entry after failed delivery: %w", restoreErr))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, deliverErr, "delivery failed, item returned to bin")
	}

	s.cache.evictItem(entry.ItemID)
	if err := s.items.Remove(ctx, entry.ItemID); err != nil {
		return s.storage(err, "removing delivered item")
	}
	return nil
}

// loadListingLocked is the read-through path for single listings. Callers
// must hold the mutex.
func (s *Service) loadListingLocked(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if cached, ok := s.cache.listing(id); ok {
		return cached, nil
	}
	listing, err := s.listings.Get(ctx, id)
	if err != nil {
		return nil, s.storage(err, "loading listing")
	}
	if listing != nil {
		s.cache.putListing(listing)
	}
	return listing, nil
}

// loadItemLocked is the read-through path for item blobs. Callers must hold
// the mutex.
func (s *Service) loadItemLocked(ctx context.Context, id int64) (*models.ItemBlob, error) {
	if cached, ok := s.cache.item(id); ok {
		return cached, nil
	}
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, s.storage(err, "loading item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listing refers to a missing item")
	}
	s.cache.putItem(item)
	return item, nil
}

// deliverOrBin attempts direct delivery and falls back to the collection bin,
// so a sold item is never lost to a delivery failure.
func (s *Service) deliverOrBin(ctx context.Context, playerID uuid.UUID, item *models.ItemBlob, recipient Recipient) {
	if err := recipient.Deliver(ctx, item); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "item_id", item.ID), "delivery failed, routing item to collection bin")
		if binErr := s.bin.Add(ctx, &models.BinEntry{
			ItemID:        item.ID,
			PlayerID:      playerID,
			PlacementTime: s.now().UTC(),
		}); binErr != nil {
			s.fatal(fmt.Errorf("binning undeliverable item %d: %w", item.ID, binErr))
		}
		return
	}
	s.cache.evictItem(item.ID)
	if err := s.items.Remove(ctx, item.ID); err != nil {
		s.fatal(fmt.Errorf("removing delivered item %d: %w", item.ID, err))
	}
}

func normalizePerPage(configured int) int {
	if configured > 0 {
		return pagination.NormalizePerPage(configured)
	}
	return pagination.DefaultPerPage
}
