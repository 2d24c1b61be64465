package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cosmicpe/auctionhouse-backend/api/responses"
	"github.com/cosmicpe/auctionhouse-backend/api/validators"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
)

// SaleLogs returns one page of the global sale history.
func SaleLogs(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.SaleLogs(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PlayerSaleLogs returns one page of sales the player took part in.
func PlayerSaleLogs(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := house.PlayerSaleLogs(r.Context(), playerID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PlayerSoldLogs returns the sales a player completed as seller inside an
// optional from/to window. Timestamps are RFC 3339; from defaults to the
// beginning of time and to defaults to now.
func PlayerSoldLogs(house House, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := parsePlayerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, err := parseWindow(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := house.PlayerSalesWithin(r.Context(), playerID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp")
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp")
		}
		to = parsed
	}
	return from, to, nil
}
