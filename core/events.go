package core

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind identifies an audit event.
type EventKind string

const (
	EventBidCommitted      EventKind = "bid_committed"
	EventBidRevealed       EventKind = "bid_revealed"
	EventAuctionFinalized  EventKind = "auction_finalized"
	EventTokensClaimed     EventKind = "tokens_claimed"
	EventProceedsWithdrawn EventKind = "proceeds_withdrawn"
)

// Event is an append-only audit record emitted after each successful mutating
// operation. The set of populated fields depends on Kind. Together the events
// form the external audit trail; no collaborator should need to reconstruct
// auction state any other way.
type Event struct {
	Kind      EventKind
	AuctionID string
	Timestamp time.Time

	// Commit and reveal events.
	Bidder     string
	Commitment string
	Ciphertext []byte
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Salt       string

	// Finalization events.
	ClearingPrice  decimal.Decimal
	TotalAllocated decimal.Decimal

	// Claim and withdrawal events.
	Allocation decimal.Decimal
	Payment    decimal.Decimal
	Proceeds   decimal.Decimal
}

// AuditSink receives audit events. Implementations must not call back into
// the auction; events are delivered while the operation lock is held.
type AuditSink interface {
	Record(ev Event)
}

// FanOutSink delivers each event to every sink in order.
type FanOutSink []AuditSink

func (s FanOutSink) Record(ev Event) {
	for _, sink := range s {
		sink.Record(ev)
	}
}

// LogSink writes audit events to the process log. It is the default sink.
type LogSink struct{}

func (LogSink) Record(ev Event) {
	switch ev.Kind {
	case EventBidCommitted:
		log.Printf("INFO: audit %s auction=%s bidder=%s commitment=%s ciphertext_bytes=%d",
			ev.Kind, ev.AuctionID, ev.Bidder, ev.Commitment, len(ev.Ciphertext))
	case EventBidRevealed:
		log.Printf("INFO: audit %s auction=%s bidder=%s price=%s quantity=%s",
			ev.Kind, ev.AuctionID, ev.Bidder, ev.Price, ev.Quantity)
	case EventAuctionFinalized:
		log.Printf("INFO: audit %s auction=%s clearing_price=%s total_allocated=%s",
			ev.Kind, ev.AuctionID, ev.ClearingPrice, ev.TotalAllocated)
	case EventTokensClaimed:
		log.Printf("INFO: audit %s auction=%s bidder=%s allocation=%s payment=%s",
			ev.Kind, ev.AuctionID, ev.Bidder, ev.Allocation, ev.Payment)
	case EventProceedsWithdrawn:
		log.Printf("INFO: audit %s auction=%s proceeds=%s",
			ev.Kind, ev.AuctionID, ev.Proceeds)
	default:
		log.Printf("INFO: audit %s auction=%s", ev.Kind, ev.AuctionID)
	}
}
