package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cosmicpe/auctionhouse-backend/internal/auctionhouse"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
	"github.com/cosmicpe/auctionhouse-backend/pkg/types"
)

func newClaimRequest(t *testing.T, playerID uuid.UUID, itemID, body string) *http.Request {
	t.Helper()
	target := "/api/v1/players/" + playerID.String() + "/bin/" + itemID + "/claim"
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("playerID", playerID.String())
	routeCtx.URLParams.Add("itemID", itemID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestClaimBinItemReturnsDeliveredPayload(t *testing.T) {
	playerID := uuid.New()
	house := &stubHouse{
		claim: func(_ context.Context, claimant auctionhouse.Actor, itemID int64, recipient auctionhouse.Recipient) error {
			if claimant.ID != playerID || itemID != 42 {
				t.Fatalf("unexpected args: %s %d", claimant.ID, itemID)
			}
			return recipient.Deliver(context.Background(), &models.ItemBlob{ID: 42, Payload: []byte("blob")})
		},
	}

	body := fmt.Sprintf(`{"playerId":%q,"playerName":"steve","online":true}`, playerID)
	req := newClaimRequest(t, playerID, "42", body)

	w := httptest.NewRecorder()
	ClaimBinItem(house, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["delivered"] != true {
		t.Fatalf("expected delivered=true, got %v", data)
	}
}

func TestClaimBinItemRejectsBadItemID(t *testing.T) {
	house := &stubHouse{}
	playerID := uuid.New()
	req := newClaimRequest(t, playerID, "not-a-number", `{}`)

	w := httptest.NewRecorder()
	ClaimBinItem(house, testLogger())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestClaimAllBinItemsReportsClaimedCount(t *testing.T) {
	playerID := uuid.New()
	house := &stubHouse{
		claimAll: func(_ context.Context, claimant auctionhouse.Actor, recipient auctionhouse.Recipient) (int, error) {
			if claimant.ID != playerID {
				t.Fatalf("unexpected claimant %s", claimant.ID)
			}
			for _, id := range []int64{7, 8} {
				if err := recipient.Deliver(context.Background(), &models.ItemBlob{ID: id, Payload: []byte("blob")}); err != nil {
					return 0, err
				}
			}
			return 2, nil
		},
	}

	body := fmt.Sprintf(`{"playerId":%q,"playerName":"steve","online":true}`, playerID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/players/"+playerID.String()+"/bin/claim", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ClaimAllBinItems(house, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["claimed"] != float64(2) {
		t.Fatalf("expected claimed=2, got %v", data)
	}
	if payloads, ok := data["payloads"].([]any); !ok || len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %v", data["payloads"])
	}
}

func TestLookupPlayerMapsNotFound(t *testing.T) {
	house := &stubHouse{
		lookup: func(_ context.Context, name string) (*auctionhouse.PlayerView, error) {
			if name != "steve" {
				t.Fatalf("unexpected name %q", name)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "player not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players/lookup?name=steve", nil)
	w := httptest.NewRecorder()
	LookupPlayer(house, testLogger())(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	apiErr := decodeError(t, w)
	if apiErr.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found code, got %s", apiErr.Code)
	}
}
