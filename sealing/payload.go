package sealing

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// BidPayload is the true bid a bidder seals at commit time and the issuer
// recovers off-chain during the reveal window.
type BidPayload struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Salt     string          `json:"salt"`
}

// envelope is the CBOR wire form of a sealed bid: one opaque blob packing the
// wrapped AES key, GCM nonce and payload ciphertext.
type envelope struct {
	AESKeyEncrypted  []byte `cbor:"aes_key_encrypted"`
	EncryptedPayload []byte `cbor:"encrypted_payload"`
	Nonce            []byte `cbor:"nonce"`
	HashAlgorithm    string `cbor:"hash_algorithm,omitempty"`
}

// SealBid encrypts a bid payload under the issuer public key and returns the
// single opaque ciphertext blob the engine stores verbatim.
func SealBid(publicKey *rsa.PublicKey, payload BidPayload) ([]byte, error) {
	return SealBidWithHash(publicKey, payload, HashAlgorithmSHA256)
}

// SealBidWithHash is SealBid with an explicit RSA-OAEP hash algorithm.
func SealBidWithHash(publicKey *rsa.PublicKey, payload BidPayload, hashAlg HashAlgorithm) ([]byte, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bid payload: %w", err)
	}

	ct, err := EncryptHybrid(plaintext, publicKey, hashAlg)
	if err != nil {
		return nil, fmt.Errorf("failed to seal bid: %w", err)
	}

	blob, err := cbor.Marshal(envelope{
		AESKeyEncrypted:  ct.AESKeyEncrypted,
		EncryptedPayload: ct.EncryptedPayload,
		Nonce:            ct.Nonce,
		HashAlgorithm:    string(ct.HashAlgorithm),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sealed bid envelope: %w", err)
	}
	return blob, nil
}

// OpenBid decrypts a sealed bid blob with the issuer's key manager.
func OpenBid(km *KeyManager, blob []byte) (*BidPayload, error) {
	var env envelope
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("failed to decode sealed bid envelope: %w", err)
	}

	plaintext, err := DecryptHybrid(&HybridCiphertext{
		AESKeyEncrypted:  env.AESKeyEncrypted,
		EncryptedPayload: env.EncryptedPayload,
		Nonce:            env.Nonce,
		HashAlgorithm:    HashAlgorithm(env.HashAlgorithm),
	}, km.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed bid: %w", err)
	}

	var payload BidPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("invalid bid payload format: %w", err)
	}
	return &payload, nil
}
