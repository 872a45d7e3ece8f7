// Package auctionapi defines the wire types for the auction server and the
// audit records that form the external audit trail.
package auctionapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request type discriminators.
const (
	TypePing     = "ping"
	TypeKey      = "key_request"
	TypeCommit   = "commit_request"
	TypeReveal   = "reveal_request"
	TypeStatus   = "status_request"
	TypeFinalize = "finalize_request"
	TypeClaim    = "claim_request"
	TypeWithdraw = "withdraw_request"
	TypeAudit    = "audit_request"
)

// CommitRequest submits a binding commitment and sealed bid ciphertext.
// The account field identifies the invoking bidder.
type CommitRequest struct {
	Type       string `json:"type"`
	Account    string `json:"account"`
	Commitment string `json:"commitment"`
	Ciphertext []byte `json:"ciphertext"`
}

// RevealRequest discloses the true bid behind a prior commitment.
type RevealRequest struct {
	Type     string          `json:"type"`
	Account  string          `json:"account"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Salt     string          `json:"salt"`
}

// AccountRequest covers the operations that carry only a caller account:
// finalize, claim and withdraw.
type AccountRequest struct {
	Type    string `json:"type"`
	Account string `json:"account"`
}

// OpResponse is the generic mutation outcome.
type OpResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// KeyResponse carries the issuer public key bidders seal their bids under.
type KeyResponse struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"` // PEM format
}

// StatusResponse is a read-only snapshot of the auction.
type StatusResponse struct {
	Type           string          `json:"type"`
	AuctionID      string          `json:"auction_id"`
	Phase          string          `json:"phase"`
	CommitDeadline time.Time       `json:"commit_deadline"`
	RevealDeadline time.Time       `json:"reveal_deadline"`
	ClaimDeadline  time.Time       `json:"claim_deadline"`
	BidderCount    int             `json:"bidder_count"`
	ClearingPrice  decimal.Decimal `json:"clearing_price"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
}

// AuditResponse carries the COSE-signed audit trail.
type AuditResponse struct {
	Type            string `json:"type"`
	TrailCOSEBase64 string `json:"trail_cose_base64"`
}
