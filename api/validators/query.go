package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePage reads the one-based page query parameter. Out-of-range pages are
// clamped later against the actual row count, so any positive value is valid.
func ParsePage(r *http.Request) (int, error) {
	return ParseQueryInt(r, "page", 1, 1, 1<<30)
}
