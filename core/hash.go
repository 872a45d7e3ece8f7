package core

import (
	"crypto/sha256"
	"fmt"

	"github.com/shopspring/decimal"
)

// ComputeBidCommitment computes the binding commitment hash for a bid.
// It is used by bidders (to produce the commitment) and by the engine
// (to verify a reveal against the stored commitment).
//
// Formula: SHA256(bidder + "|" + price + "|" + quantity + "|" + salt)
//
// Price and quantity are rendered with decimal.String, which is canonical for
// the fixed-point integers used throughout, so the same tuple always hashes
// to the same value regardless of how the caller constructed the decimals.
func ComputeBidCommitment(bidder string, price, quantity decimal.Decimal, salt string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", bidder, price.String(), quantity.String(), salt)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
