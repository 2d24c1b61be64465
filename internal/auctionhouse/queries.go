package auctionhouse

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/pagination"
)

// BrowsePage returns one page of all live listings ordered soonest expiry
// first. Rows are read and folded into the cache under the lock, so a sale
// committing meanwhile cannot leave a removed listing cached. A follow-up
// confirm or bid then hits memory.
func (s *Service) BrowsePage(ctx context.Context, page int) (*ListingPage, error) {
	perPage := normalizePerPage(s.auction.EntriesPerPage)

	total, err := s.listings.Count(ctx)
	if err != nil {
		return nil, s.storage(err, "counting listings")
	}
	page = pagination.NormalizePage(page, int(total), perPage)

	s.mu.Lock()
	rows, err := s.listings.List(ctx, pagination.Offset(page, perPage), perPage)
	if err != nil {
		s.mu.Unlock()
		return nil, s.storage(err, "listing page")
	}
	s.cache.warm(rows)
	s.mu.Unlock()

	return &ListingPage{
		Listings: listingViews(rows),
		Page:     page,
		LastPage: pagination.LastPage(int(total), perPage),
		Total:    total,
	}, nil
}

// Groups returns one page of listing groups, most populated first.
func (s *Service) Groups(ctx context.Context, page int) (*GroupPage, error) {
	perPage := normalizePerPage(s.auction.EntriesPerPage)

	total, err := s.listings.CountGroups(ctx)
	if err != nil {
		return nil, s.storage(err, "counting listing groups")
	}
	page = pagination.NormalizePage(page, int(total), perPage)

	rows, err := s.listings.ListGroups(ctx, pagination.Offset(page, perPage), perPage)
	if err != nil {
		return nil, s.storage(err, "listing groups")
	}

	groups := make([]GroupView, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, GroupView{Kind: row.Kind, Meta: row.Meta, Count: row.Count})
	}
	return &GroupPage{
		Groups:   groups,
		Page:     page,
		LastPage: pagination.LastPage(int(total), perPage),
		Total:    total,
	}, nil
}

// Group returns one page of listings sharing a kind and meta, cheapest first.
func (s *Service) Group(ctx context.Context, kind string, meta, page int) (*ListingPage, error) {
	perPage := normalizePerPage(s.auction.EntriesPerPage)

	total, err := s.listings.CountGroup(ctx, kind, meta)
	if err != nil {
		return nil, s.storage(err, "counting group listings")
	}
	page = pagination.NormalizePage(page, int(total), perPage)

	s.mu.Lock()
	rows, err := s.listings.ListGroup(ctx, kind, meta, pagination.Offset(page, perPage), perPage)
	if err != nil {
		s.mu.Unlock()
		return nil, s.storage(err, "listing group page")
	}
	s.cache.warm(rows)
	s.mu.Unlock()

	return &ListingPage{
		Listings: listingViews(rows),
		Page:     page,
		LastPage: pagination.LastPage(int(total), perPage),
		Total:    total,
	}, nil
}

// GetListing returns a single live listing, or a stale error when it is gone.
func (s *Service) GetListing(ctx context.Context, id uuid.UUID) (*ListingView, error) {
	s.mu.Lock()
	listing, err := s.loadListingLocked(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if listing == nil || listing.Expired(s.now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeStale, "listing is no longer available")
	}
	view := listingView(listing)
	return &view, nil
}

// PlayerListings returns every live listing a seller currently holds.
func (s *Service) PlayerListings(ctx context.Context, sellerID uuid.UUID) ([]ListingView, error) {
	rows, err := s.listings.ListForSeller(ctx, sellerID)
	if err != nil {
		return nil, s.storage(err, "listing seller listings")
	}
	return listingViews(rows), nil
}

// CollectionBin returns a player's binned items, oldest first.
func (s *Service) CollectionBin(ctx context.Context, playerID uuid.UUID) ([]BinView, error) {
	rows, err := s.bin.ListForPlayer(ctx, playerID)
	if err != nil {
		return nil, s.storage(err, "listing collection bin")
	}
	views := make([]BinView, 0, len(rows))
	for _, entry := range rows {
		view := BinView{ItemID: entry.ItemID, PlacementTime: entry.PlacementTime}
		if entry.Item != nil {
			view.Kind = entry.Item.Kind
			view.Meta = entry.Item.Meta
			view.Payload = entry.Item.Payload
		}
		views = append(views, view)
	}
	return views, nil
}

// SaleLogs returns one page of the global sale history, newest first.
func (s *Service) SaleLogs(ctx context.Context, page int) (*SalePage, error) {
	perPage := normalizePerPage(s.auction.EntriesPerPage)

	total, err := s.sales.Count(ctx)
	if err != nil {
		return nil, s.storage(err, "counting sale records")
	}
	page = pagination.NormalizePage(page, int(total), perPage)

	rows, err := s.sales.List(ctx, pagination.Offset(page, perPage), perPage)
	if err != nil {
		return nil, s.storage(err, "listing sale records")
	}
	return &SalePage{
		Sales:    saleViews(rows),
		Page:     page,
		LastPage: pagination.LastPage(int(total), perPage),
		Total:    total,
	}, nil
}

// PlayerSaleLogs returns one page of sales the player took part in, as either
// buyer or seller.
func (s *Service) PlayerSaleLogs(ctx context.Context, playerID uuid.UUID, page int) (*SalePage, error) {
	perPage := normalizePerPage(s.auction.EntriesPerPage)

	total, err := s.sales.CountForPlayer(ctx, playerID)
	if err != nil {
		return nil, s.storage(err, "counting player sale records")
	}
	page = pagination.NormalizePage(page, int(total), perPage)

	rows, err := s.sales.ListForPlayer(ctx, playerID, pagination.Offset(page, perPage), perPage)
	if err != nil {
		return nil, s.storage(err, "listing player sale records")
	}
	return &SalePage{
		Sales:    saleViews(rows),
		Page:     page,
		LastPage: pagination.LastPage(int(total), perPage),
		Total:    total,
	}, nil
}

// PlayerSalesWithin returns the sales a player completed as seller inside
// the given window, newest first.
func (s *Service) PlayerSalesWithin(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]SaleView, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window end precedes start")
	}
	rows, err := s.sales.ListSoldForPlayer(ctx, sellerID, from, to)
	if err != nil {
		return nil, s.storage(err, "listing sold records")
	}
	return saleViews(rows), nil
}

// PlayerStats returns a known player's identity plus usage counts.
func (s *Service) PlayerStats(ctx context.Context, playerID uuid.UUID) (*PlayerView, error) {
	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, s.storage(err, "loading player")
	}
	if player == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "player not found")
	}
	stats, err := s.players.Stats(ctx, playerID)
	if err != nil {
		return nil, s.storage(err, "loading player stats")
	}
	return &PlayerView{
		ID:       player.ID,
		Name:     player.Name,
		Listings: stats.Listings,
		Binned:   stats.Binned,
	}, nil
}

// LookupPlayer resolves a player by name.
func (s *Service) LookupPlayer(ctx context.Context, name string) (*PlayerView, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "player name is required")
	}
	player, err := s.players.LookupByName(ctx, name)
	if err != nil {
		return nil, s.storage(err, "looking up player")
	}
	if player == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "player not found")
	}
	return s.PlayerStats(ctx, player.ID)
}
