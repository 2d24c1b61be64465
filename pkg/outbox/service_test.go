package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	"github.com/cosmicpe/auctionhouse-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestEmitStoresEnvelope(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	aggregateID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventListingCreated,
		AggregateType: enums.AggregateListing,
		AggregateID:   aggregateID,
		Actor:         &ActorRef{PlayerID: uuid.New(), Name: "steve"},
		Data:          map[string]any{"kind": "diamond_sword"},
		Version:       1,
	}

	if err := svc.Emit(context.Background(), db, event); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	rows, err := repo.FetchUnpublished(10, 10)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 outbox row, got %d", len(rows))
	}
	row := rows[0]
	if row.EventType != enums.EventListingCreated {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.AggregateID != aggregateID {
		t.Fatalf("unexpected aggregate id %s", row.AggregateID)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("unexpected envelope version %d", envelope.Version)
	}
	if envelope.Actor == nil || envelope.Actor.Name != "steve" {
		t.Fatalf("actor not preserved: %+v", envelope.Actor)
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatalf("occurredAt should be stamped")
	}
}

func TestEmitIfNotExistsSuppressesDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	event := DomainEvent{
		EventType:     enums.EventListingExpired,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Data:          map[string]any{},
	}

	if err := svc.EmitIfNotExists(context.Background(), db, event); err != nil {
		t.Fatalf("first emit failed: %v", err)
	}
	if err := svc.EmitIfNotExists(context.Background(), db, event); err != nil {
		t.Fatalf("second emit failed: %v", err)
	}

	rows, err := repo.FetchUnpublished(10, 10)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected duplicate suppression, got %d rows", len(rows))
	}
}

func TestMarkPublishedAndFailed(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	event := DomainEvent{
		EventType:     enums.EventBidPlaced,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Data:          map[string]any{},
	}
	if err := svc.Emit(context.Background(), db, event); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	rows, err := repo.FetchUnpublished(10, 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("fetch unpublished: rows=%d err=%v", len(rows), err)
	}

	if err := repo.MarkFailed(rows[0].ID, context.DeadlineExceeded); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkPublished(rows[0].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	rows, err = repo.FetchUnpublished(10, 10)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("published rows should not be fetched again, got %d", len(rows))
	}
}
