package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/bondauction/auctionapi"
	"github.com/cloudx-io/bondauction/core"
	"github.com/cloudx-io/bondauction/ledger"
	"github.com/cloudx-io/bondauction/sealing"
)

// AuctionServer hosts one auction instance behind the vsock request loop.
type AuctionServer struct {
	port       uint32
	maxWorkers int

	auction    *core.Auction
	keyManager *sealing.KeyManager
	payment    *ledger.PaymentToken
	instrument *ledger.InstrumentToken
	trail      *auctionapi.Trail
	signingKey *ecdsa.PrivateKey
}

// NewAuctionServer wires an auction engine, its ledgers, the issuer key pair
// and the trail-signing key from the configuration.
func NewAuctionServer(cfg *Config) (*AuctionServer, error) {
	supply, minPrice, maxPrice, instrumentCap, err := cfg.amounts()
	if err != nil {
		return nil, err
	}
	commitDur, revealDur, claimDur, err := cfg.durations()
	if err != nil {
		return nil, err
	}

	keyManager, err := sealing.NewKeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}
	publicKeyPEM, err := keyManager.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export issuer public key: %w", err)
	}

	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate trail signing key: %w", err)
	}

	payment := ledger.NewPaymentToken(cfg.PaymentName)
	instrument := ledger.NewInstrumentToken(cfg.InstrumentName, instrumentCap)

	escrowAccount := "escrow-" + uuid.NewString()
	instrument.AddMinter(escrowAccount)

	trail := auctionapi.NewTrail()

	auction, err := core.NewAuction(core.Params{
		BondSupply:      supply,
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		CommitDuration:  commitDur,
		RevealDuration:  revealDur,
		ClaimDuration:   claimDur,
		IssuerPublicKey: []byte(publicKeyPEM),
	}, cfg.Operator, core.Deps{
		Payment:    ledger.NewEscrowAccount(payment, escrowAccount),
		Instrument: ledger.NewBoundMinter(instrument, escrowAccount),
		Audit:      core.FanOutSink{core.LogSink{}, trail},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auction: %w", err)
	}

	log.Printf("INFO: Auction %s initialized: supply=%s price=[%s, %s]",
		auction.ID(), supply, minPrice, maxPrice)

	return &AuctionServer{
		port:       cfg.ListenPort,
		maxWorkers: cfg.MaxWorkers,
		auction:    auction,
		keyManager: keyManager,
		payment:    payment,
		instrument: instrument,
		trail:      trail,
		signingKey: signingKey,
	}, nil
}

// handleRequest decodes one request, drives the engine, and returns the
// response value to encode.
func (s *AuctionServer) handleRequest(raw []byte) any {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse(fmt.Sprintf("Failed to decode request: %v", err))
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case auctionapi.TypeKey:
		publicKeyPEM, err := s.keyManager.PublicKeyPEM()
		if err != nil {
			log.Printf("ERROR: Key request failed: %v", err)
			return errorResponse(fmt.Sprintf("Key request failed: %v", err))
		}
		return auctionapi.KeyResponse{
			Type:      "key_response",
			PublicKey: publicKeyPEM,
		}

	case auctionapi.TypeCommit:
		var req auctionapi.CommitRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode commit request: %v", err))
		}
		return opResponse("commit_response", s.auction.Commit(req.Account, req.Commitment, req.Ciphertext))

	case auctionapi.TypeReveal:
		var req auctionapi.RevealRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode reveal request: %v", err))
		}
		return opResponse("reveal_response", s.auction.Reveal(req.Account, req.Price, req.Quantity, req.Salt))

	case auctionapi.TypeStatus:
		commit, reveal, claim := s.auction.Deadlines()
		return auctionapi.StatusResponse{
			Type:           "status_response",
			AuctionID:      s.auction.ID(),
			Phase:          s.auction.Phase().String(),
			CommitDeadline: commit,
			RevealDeadline: reveal,
			ClaimDeadline:  claim,
			BidderCount:    s.auction.BidderCount(),
			ClearingPrice:  s.auction.ClearingPrice(),
			TotalAllocated: s.auction.TotalAllocated(),
		}

	case auctionapi.TypeFinalize:
		var req auctionapi.AccountRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode finalize request: %v", err))
		}
		return opResponse("finalize_response", s.auction.Finalize(req.Account))

	case auctionapi.TypeClaim:
		var req auctionapi.AccountRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode claim request: %v", err))
		}
		return opResponse("claim_response", s.auction.Claim(req.Account))

	case auctionapi.TypeWithdraw:
		var req auctionapi.AccountRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorResponse(fmt.Sprintf("Failed to decode withdraw request: %v", err))
		}
		return opResponse("withdraw_response", s.auction.WithdrawProceeds(req.Account))

	case auctionapi.TypeAudit:
		signed, err := auctionapi.SignTrail(s.trail, s.signingKey)
		if err != nil {
			log.Printf("ERROR: Audit trail signing failed: %v", err)
			return errorResponse(fmt.Sprintf("Audit trail signing failed: %v", err))
		}
		return auctionapi.AuditResponse{
			Type:            "audit_response",
			TrailCOSEBase64: base64.StdEncoding.EncodeToString(signed),
		}

	default:
		return errorResponse(fmt.Sprintf("Unknown request type: %s", baseReq.Type))
	}
}

func opResponse(responseType string, err error) auctionapi.OpResponse {
	if err != nil {
		log.Printf("INFO: Operation rejected: %v", err)
		return auctionapi.OpResponse{Type: responseType, Success: false, Message: err.Error()}
	}
	return auctionapi.OpResponse{Type: responseType, Success: true}
}

func errorResponse(message string) map[string]any {
	return map[string]any{
		"type":    "error",
		"message": message,
	}
}

// TrailSigningKeyPEM exports the trail-signing public key so auditors can pin
// it out of band.
func (s *AuctionServer) TrailSigningKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(&s.signingKey.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal trail signing key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derBytes})), nil
}
