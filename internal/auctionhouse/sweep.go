package auctionhouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	"github.com/cosmicpe/auctionhouse-backend/pkg/enums"
	"github.com/cosmicpe/auctionhouse-backend/pkg/outbox"
)

// SweepExpired finalizes expired listings that never drew a bid. The item
// moves to the seller's collection bin. Expired listings holding a bid are
// left for SettleUnsettled. Returns the number of listings finalized.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	expired, err := s.listings.Expiring(ctx, now)
	if err != nil {
		return 0, s.storage(err, "loading expired listings")
	}

	finalized := 0
	for i := range expired {
		listing := &expired[i]
		if listing.Bid.HasBidder() {
			continue
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.listings.WithTx(tx).Remove(ctx, listing.ID); err != nil {
				return err
			}
			if err := s.bin.WithTx(tx).Add(ctx, &models.BinEntry{
				ItemID:        listing.ItemID,
				PlayerID:      listing.SellerID,
				PlacementTime: now,
			}); err != nil {
				return err
			}
			// sweeps retry after partial failures, dedupe the event
			return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventListingExpired,
				AggregateType: enums.AggregateListing,
				AggregateID:   listing.ID,
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
			return finalized, s.storage(err, "finalizing expired listing")
		}
		s.cache.evictListing(listing.ID)
		finalized++
	}
	return finalized, nil
}

// SettleUnsettled completes expired auctions that hold a winning bid. The
// escrowed offer pays the seller, the item lands in the winner's collection
// bin, and a sale record is written. Returns the number settled.
func (s *Service) SettleUnsettled(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	unsettled, err := s.listings.UnsettledBids(ctx, now)
	if err != nil {
		return 0, s.storage(err, "loading unsettled bids")
	}

	settled := 0
	for i := range unsettled {
		listing := &unsettled[i]
		if !listing.Bid.HasBidder() {
			continue
		}
		winnerID := *listing.Bid.BidderID
		winnerName := ""
		if listing.Bid.BidderName != nil {
			winnerName = *listing.Bid.BidderName
		}
		offer := listing.Bid.Offer

		var kind string
		var meta int
		if listing.Item != nil {
			kind = listing.Item.Kind
			meta = listing.Item.Meta
		}

		record := &models.SaleRecord{
			ID:         uuid.New(),
			ListingID:  listing.ID,
			SellerID:   listing.SellerID,
			SellerName: listing.SellerName,
			BuyerID:    winnerID,
			BuyerName:  winnerName,
			Kind:       kind,
			Meta:       meta,
			Price:      offer,
			SaleType:   enums.SaleAuction,
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.listings.WithTx(tx).Remove(ctx, listing.ID); err != nil {
				return err
			}
			if err := s.bin.WithTx(tx).Add(ctx, &models.BinEntry{
				ItemID:        listing.ItemID,
				PlayerID:      winnerID,
				PlacementTime: now,
			}); err != nil {
				return err
			}
			if err := s.sales.WithTx(tx).Create(ctx, record); err != nil {
				return err
			}
			return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBidWon,
				AggregateType: enums.AggregateListing,
				AggregateID:   listing.ID,
				Version:       eventVersion,
				Data: outbox.SaleEventData{
					ListingID: listing.ID,
					SellerID:  listing.SellerID,
					BuyerID:   winnerID,
					BuyerName: winnerName,
					Price:     offer,
				},
			})
		})
		if err != nil {
			return settled, s.storage(err, "settling auction")
		}
		s.cache.evictListing(listing.ID)

		if payErr := s.economy.AddBalance(ctx, listing.SellerID, offer); payErr != nil {
			s.logg.Error(s.logg.WithListingID(ctx, listing.ID.String()), "auction payout failed", payErr)
		}
		settled++
	}
	return settled, nil
}

// NextExpiry reports when the soonest live listing expires, or nil when the
// house is empty.
func (s *Service) NextExpiry(ctx context.Context) (*time.Time, error) {
	next, err := s.listings.NextExpiry(ctx, s.now().UTC())
	if err != nil {
		return nil, s.storage(err, "loading next expiry")
	}
	return next, nil
}
