package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cosmicpe/auctionhouse-backend/api/responses"
	"github.com/cosmicpe/auctionhouse-backend/api/validators"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
)

// PlayerListings returns the live listings a player is selling.
func PlayerListings(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := house.PlayerListings(r.Context(), playerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// PlayerBin returns the player's collection bin, oldest first.
func PlayerBin(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := house.CollectionBin(r.Context(), playerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type claimRequest struct {
	actorRef
	Online bool `json:"online"`
}

// ClaimBinItem hands a binned item back to its owner.
func ClaimBinItem(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "itemID")), 10, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}
		var req claimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		claimant, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipient := &captureRecipient{online: req.Online}
		if err := house.Claim(r.Context(), claimant, itemID, recipient); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipient.result())
	}
}

type claimAllResponse struct {
	Claimed  int      `json:"claimed"`
	Payloads [][]byte `json:"payloads"`
}

// ClaimAllBinItems empties the player's collection bin to the game server.
// Items that cannot be delivered stay binned.
func ClaimAllBinItems(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req claimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		claimant, err := req.toActor()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipient := &captureRecipient{online: req.Online}
		claimed, err := house.ClaimAll(r.Context(), claimant, recipient)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, claimAllResponse{Claimed: claimed, Payloads: recipient.payloads()})
	}
}

// PlayerStats returns a player's identity and marketplace usage counts.
func PlayerStats(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := house.PlayerStats(r.Context(), playerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// LookupPlayer resolves a player by name.
func LookupPlayer(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		view, err := house.LookupPlayer(r.Context(), name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
