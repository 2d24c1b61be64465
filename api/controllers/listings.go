package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/api/responses"
	"github.com/cosmicpe/auctionhouse-backend/api/validators"
	"github.com/cosmicpe/auctionhouse-backend/internal/auctionhouse"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
)

// BrowseListings returns one page of live listings.
func BrowseListings(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.BrowsePage(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingGroups returns one page of listing groups.
func ListingGroups(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.Groups(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingGroup returns one page of listings sharing a kind and meta.
func ListingGroup(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := strings.TrimSpace(chi.URLParam(r, "kind"))
		if kind == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item kind is required"))
			return
		}
		meta, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "meta")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item meta"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.Group(r.Context(), kind, meta, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingDetail returns a single live listing.
func ListingDetail(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.GetListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type sellRequest struct {
	actorRef
	Payload         string          `json:"payload" validate:"required"`
	Kind            string          `json:"kind" validate:"required"`
	Meta            int             `json:"meta"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	Auction         bool            `json:"auction"`
	DurationSeconds *int64          `json:"durationSeconds,omitempty"`
}

// SellListing lists an item for direct sale or auction.
func SellListing(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sellRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		seller, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := decodePayload(req.Payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := house.Sell(r.Context(), seller, auctionhouse.SellRequest{
			Payload:  payload,
			Kind:     req.Kind,
			Meta:     req.Meta,
			Price:    req.Price,
			Auction:  req.Auction,
			Duration: durationFromSeconds(req.DurationSeconds),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type confirmRequest struct {
	actorRef
	ExpectedPrice decimal.Decimal `json:"expectedPrice" validate:"required"`
	Online        bool            `json:"online"`
}

type confirmResponse struct {
	Sale     *auctionhouse.SaleView    `json:"sale,omitempty"`
	Bid      *auctionhouse.ListingView `json:"bid,omitempty"`
	Delivery deliveryResult            `json:"delivery"`
}

// ConfirmPurchase commits the confirmation screen: a buy-now purchase, or a
// bid at the shown price when the listing is an auction.
func ConfirmPurchase(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyer, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipient := &captureRecipient{online: req.Online}
		result, err := house.Confirm(r.Context(), buyer, listingID, req.ExpectedPrice, recipient)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmResponse{Sale: result.Sale, Bid: result.Bid, Delivery: recipient.result()})
	}
}

type bidRequest struct {
	actorRef
	Offer decimal.Decimal `json:"offer" validate:"required"`
}

// PlaceBid records a new high bid on an auction listing.
func PlaceBid(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req bidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bidder, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := house.PlaceBid(r.Context(), bidder, listingID, req.Offer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type withdrawRequest struct {
	actorRef
}

// WithdrawListing pulls a live listing back into the seller's collection bin.
func WithdrawListing(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req withdrawRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		seller, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := house.Withdraw(r.Context(), seller, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "withdrawn"})
	}
}
