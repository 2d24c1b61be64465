package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateListing    OutboxAggregateType = "listing"
	AggregateBinEntry   OutboxAggregateType = "bin_entry"
	AggregateSaleRecord OutboxAggregateType = "sale_record"
	AggregatePlayer     OutboxAggregateType = "player"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateListing,
	AggregateBinEntry,
	AggregateSaleRecord,
	AggregatePlayer,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventListingCreated   OutboxEventType = "listing_created"
	EventListingSold      OutboxEventType = "listing_sold"
	EventListingWithdrawn OutboxEventType = "listing_withdrawn"
	EventListingExpired   OutboxEventType = "listing_expired"
	EventBidPlaced        OutboxEventType = "bid_placed"
	EventBidOutbid        OutboxEventType = "bid_outbid"
	EventBidWon           OutboxEventType = "bid_won"
	EventBinItemClaimed   OutboxEventType = "bin_item_claimed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventListingCreated,
	EventListingSold,
	EventListingWithdrawn,
	EventListingExpired,
	EventBidPlaced,
	EventBidOutbid,
	EventBidWon,
	EventBinItemClaimed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
