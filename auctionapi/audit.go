package auctionapi

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	cose "github.com/veraison/go-cose"

	"github.com/cloudx-io/bondauction/core"
)

// AuditRecord is the wire form of one engine audit event. Decimal amounts are
// carried as canonical strings so the CBOR encoding is stable across
// implementations.
type AuditRecord struct {
	Type      string    `cbor:"type" json:"type"`
	AuctionID string    `cbor:"auction_id" json:"auction_id"`
	Timestamp time.Time `cbor:"timestamp" json:"timestamp"`

	Bidder     string `cbor:"bidder,omitempty" json:"bidder,omitempty"`
	Commitment string `cbor:"commitment,omitempty" json:"commitment,omitempty"`
	Ciphertext []byte `cbor:"ciphertext,omitempty" json:"ciphertext,omitempty"`

	Price    string `cbor:"price,omitempty" json:"price,omitempty"`
	Quantity string `cbor:"quantity,omitempty" json:"quantity,omitempty"`
	Salt     string `cbor:"salt,omitempty" json:"salt,omitempty"`

	ClearingPrice  string `cbor:"clearing_price,omitempty" json:"clearing_price,omitempty"`
	TotalAllocated string `cbor:"total_allocated,omitempty" json:"total_allocated,omitempty"`

	Allocation string `cbor:"allocation,omitempty" json:"allocation,omitempty"`
	Payment    string `cbor:"payment,omitempty" json:"payment,omitempty"`
	Proceeds   string `cbor:"proceeds,omitempty" json:"proceeds,omitempty"`
}

// RecordFromEvent converts an engine event to its wire form.
func RecordFromEvent(ev core.Event) AuditRecord {
	rec := AuditRecord{
		Type:      string(ev.Kind),
		AuctionID: ev.AuctionID,
		Timestamp: ev.Timestamp,
		Bidder:    ev.Bidder,
	}
	switch ev.Kind {
	case core.EventBidCommitted:
		rec.Commitment = ev.Commitment
		rec.Ciphertext = ev.Ciphertext
	case core.EventBidRevealed:
		rec.Price = ev.Price.String()
		rec.Quantity = ev.Quantity.String()
		rec.Salt = ev.Salt
	case core.EventAuctionFinalized:
		rec.ClearingPrice = ev.ClearingPrice.String()
		rec.TotalAllocated = ev.TotalAllocated.String()
	case core.EventTokensClaimed:
		rec.Allocation = ev.Allocation.String()
		rec.Payment = ev.Payment.String()
	case core.EventProceedsWithdrawn:
		rec.Proceeds = ev.Proceeds.String()
	}
	return rec
}

// Trail is an append-only audit trail. It implements core.AuditSink so it can
// be wired straight into the engine.
type Trail struct {
	mu      sync.Mutex
	records []AuditRecord
}

func NewTrail() *Trail {
	return &Trail{}
}

// Record appends an engine event to the trail.
func (t *Trail) Record(ev core.Event) {
	rec := RecordFromEvent(ev)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
}

// Records returns a copy of the trail in emission order.
func (t *Trail) Records() []AuditRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]AuditRecord, len(t.records))
	copy(out, t.records)
	return out
}

// EncodeCBOR serializes the trail.
func (t *Trail) EncodeCBOR() ([]byte, error) {
	data, err := cbor.Marshal(t.Records())
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit trail: %w", err)
	}
	return data, nil
}

// DecodeTrail deserializes a CBOR audit trail.
func DecodeTrail(data []byte) ([]AuditRecord, error) {
	var records []AuditRecord
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode audit trail: %w", err)
	}
	return records, nil
}

// SignTrail wraps the CBOR-encoded trail in a COSE Sign1 message signed with
// the operator's ES256 key. The signed blob is the integrity artifact
// auditors verify off-line.
func SignTrail(t *Trail, key *ecdsa.PrivateKey) ([]byte, error) {
	payload, err := t.EncodeCBOR()
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected[cose.HeaderLabelAlgorithm] = cose.AlgorithmES256
	msg.Payload = payload
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("failed to sign audit trail: %w", err)
	}

	signed, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed audit trail: %w", err)
	}
	return signed, nil
}

// VerifyTrail checks the COSE Sign1 signature against the operator's public
// key and returns the decoded records.
func VerifyTrail(signed []byte, publicKey *ecdsa.PublicKey) ([]AuditRecord, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signed); err != nil {
		return nil, fmt.Errorf("failed to decode signed audit trail: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE verifier: %w", err)
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("audit trail signature verification failed: %w", err)
	}

	return DecodeTrail(msg.Payload)
}
