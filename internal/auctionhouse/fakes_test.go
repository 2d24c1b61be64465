package auctionhouse

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/internal/bin"
	"github.com/cosmicpe/auctionhouse-backend/internal/items"
	"github.com/cosmicpe/auctionhouse-backend/internal/ledger"
	"github.com/cosmicpe/auctionhouse-backend/internal/listings"
	"github.com/cosmicpe/auctionhouse-backend/internal/players"
	"github.com/cosmicpe/auctionhouse-backend/pkg/config"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
	"github.com/cosmicpe/auctionhouse-backend/pkg/enums"
	"github.com/cosmicpe/auctionhouse-backend/pkg/logger"
	"github.com/cosmicpe/auctionhouse-backend/pkg/outbox"
)

type gormRunner struct {
	conn *gorm.DB
}

func (r *gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type fakeEconomy struct {
	balances  map[uuid.UUID]decimal.Decimal
	removeErr error
	addErr    error
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (e *fakeEconomy) seed(playerID uuid.UUID, amount int64) {
	e.balances[playerID] = decimal.NewFromInt(amount)
}

func (e *fakeEconomy) AddBalance(_ context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	if e.addErr != nil {
		return e.addErr
	}
	e.balances[playerID] = e.balances[playerID].Add(amount)
	return nil
}

func (e *fakeEconomy) RemoveBalance(_ context.Context, playerID uuid.UUID, amount decimal.Decimal) error {
	if e.removeErr != nil {
		return e.removeErr
	}
	balance := e.balances[playerID]
	if balance.LessThan(amount) {
		return fmt.Errorf("insufficient funds: have %s, need %s", balance, amount)
	}
	e.balances[playerID] = balance.Sub(amount)
	return nil
}

func (e *fakeEconomy) GetBalance(_ context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	return e.balances[playerID], nil
}

func (e *fakeEconomy) FormatBalance(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

type fakeRecipient struct {
	reachable  bool
	deliverErr error
	delivered  []*models.ItemBlob
}

func newFakeRecipient() *fakeRecipient {
	return &fakeRecipient{reachable: true}
}

func (r *fakeRecipient) Reachable() bool {
	return r.reachable
}

func (r *fakeRecipient) Deliver(_ context.Context, item *models.ItemBlob) error {
	if r.deliverErr != nil {
		return r.deliverErr
	}
	r.delivered = append(r.delivered, item)
	return nil
}

type testHouse struct {
	svc     *Service
	db      *gorm.DB
	economy *fakeEconomy
	now     time.Time
	fatal   []error
}

func (h *testHouse) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func newTestHouse(t *testing.T, auction config.AuctionConfig) *testHouse {
	t.Helper()
	return newTestHouseWithListings(t, auction, nil)
}

func newTestHouseWithListings(t *testing.T, auction config.AuctionConfig, wrap func(listings.Repository) listings.Repository) *testHouse {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to reach sql pool: %v", err)
	}
	// file::memory: hands every pooled connection its own database
	sqlDB.SetMaxOpenConns(1)
	err = conn.AutoMigrate(
		&models.Player{},
		&models.ItemBlob{},
		&models.Listing{},
		&models.BidRecord{},
		&models.BinEntry{},
		&models.SaleRecord{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	house := &testHouse{
		db:      conn,
		economy: newFakeEconomy(),
		now:     time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
	}
	listingRepo := listings.NewRepository(conn)
	if wrap != nil {
		listingRepo = wrap(listingRepo)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Logger:   logg,
		DB:       &gormRunner{conn: conn},
		Listings: listingRepo,
		Items:    items.NewRepository(conn),
		Bin:      bin.NewRepository(conn),
		Sales:    ledger.NewRepository(conn),
		Players:  players.NewRepository(conn),
		Economy:  house.economy,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Policies: PoliciesFromConfig(auction),
		Auction:  auction,
		Now:      func() time.Time { return house.now },
		Fatal:    func(err error) { house.fatal = append(house.fatal, err) },
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	house.svc = svc
	return house
}

func defaultAuctionConfig() config.AuctionConfig {
	return config.AuctionConfig{
		SellPriceMin:   decimal.NewFromInt(1),
		SellPriceMax:   decimal.NewFromInt(1000000),
		SellTaxRatePct: decimal.Zero,
		MaxListings:    10,
		ExpiryDuration: 168 * time.Hour,
		BidDurationMin: time.Minute,
		BidDurationMax: 336 * time.Hour,
		EntriesPerPage: 45,
	}
}

func testActor(name string) Actor {
	return Actor{ID: uuid.New(), Name: name}
}

func (h *testHouse) balance(id uuid.UUID) decimal.Decimal {
	return h.economy.balances[id]
}

func (h *testHouse) eventCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	err := h.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return count
}

func (h *testHouse) listingCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&models.Listing{}).Count(&count).Error; err != nil {
		t.Fatalf("count listings: %v", err)
	}
	return count
}

// gatedListings parks List calls until released so tests can order a browse
// against a competing mutation.
type gatedListings struct {
	listings.Repository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedListings) List(ctx context.Context, offset, limit int) ([]models.Listing, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Repository.List(ctx, offset, limit)
}

func (h *testHouse) saleCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(&models.SaleRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count sale records: %v", err)
	}
	return count
}

func (h *testHouse) binEntries(t *testing.T, playerID uuid.UUID) []models.BinEntry {
	t.Helper()
	var entries []models.BinEntry
	if err := h.db.Where("player_id = ?", playerID).Find(&entries).Error; err != nil {
		t.Fatalf("load bin entries: %v", err)
	}
	return entries
}

func (h *testHouse) itemExists(t *testing.T, itemID int64) bool {
	t.Helper()
	var count int64
	if err := h.db.Model(&models.ItemBlob{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	return count > 0
}
