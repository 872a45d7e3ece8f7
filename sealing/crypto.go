// Package sealing is the bid confidentiality capability: bidders seal their
// true (price, quantity, salt) tuple under the issuer's public key, and the
// issuer opens it off-chain. The auction engine never imports this package;
// its contract is only to store and return the opaque ciphertext blob, so the
// scheme can be swapped without touching the core.
package sealing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// HashAlgorithm specifies which hash function to use in RSA-OAEP.
type HashAlgorithm string

const (
	// HashAlgorithmSHA256 uses SHA-256 (recommended, default)
	HashAlgorithmSHA256 HashAlgorithm = "SHA-256"
	// HashAlgorithmSHA1 uses SHA-1 (legacy support for client compatibility)
	HashAlgorithmSHA1 HashAlgorithm = "SHA-1"
)

// GenerateRSAKeyPair generates a new RSA-2048 key pair using crypto/rand.
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// newHash creates the appropriate implementation of hash.Hash,
// or returns an error if the algorithm is unsupported.
func newHash(hashAlg HashAlgorithm) (hash.Hash, error) {
	switch hashAlg {
	case HashAlgorithmSHA256:
		return sha256.New(), nil
	case HashAlgorithmSHA1:
		return sha1.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", hashAlg)
	}
}

// HybridCiphertext is the output of hybrid RSA-OAEP + AES-256-GCM encryption.
type HybridCiphertext struct {
	AESKeyEncrypted  []byte
	EncryptedPayload []byte
	Nonce            []byte
	HashAlgorithm    HashAlgorithm
}

// EncryptHybrid encrypts plaintext using hybrid RSA-OAEP + AES-256-GCM:
// a fresh AES-256 key encrypts the payload under GCM, and the AES key is
// wrapped with RSA-OAEP using the selected hash algorithm.
func EncryptHybrid(plaintext []byte, publicKey *rsa.PublicKey, hashAlg HashAlgorithm) (*HybridCiphertext, error) {
	hasher, err := newHash(hashAlg)
	if err != nil {
		return nil, err
	}

	// Generate random AES-256 key
	aesKey := make([]byte, 32)
	if _, err := rand.Read(aesKey); err != nil {
		return nil, fmt.Errorf("failed to generate AES key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	encryptedAESKey, err := rsa.EncryptOAEP(hasher, rand.Reader, publicKey, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt AES key: %w", err)
	}

	return &HybridCiphertext{
		AESKeyEncrypted:  encryptedAESKey,
		EncryptedPayload: ciphertext,
		Nonce:            nonce,
		HashAlgorithm:    hashAlg,
	}, nil
}

// DecryptHybrid reverses EncryptHybrid: it unwraps the AES key with RSA-OAEP
// and opens the GCM payload. Returns the decrypted plaintext bytes.
//
// Note: SHA-1 support is provided for legacy client compatibility. SHA-256 is
// strongly recommended for new implementations.
func DecryptHybrid(ct *HybridCiphertext, privateKey *rsa.PrivateKey) ([]byte, error) {
	hashAlg := ct.HashAlgorithm
	if hashAlg == "" {
		hashAlg = HashAlgorithmSHA256
	}
	hasher, err := newHash(hashAlg)
	if err != nil {
		return nil, err
	}

	aesKey, err := rsa.DecryptOAEP(hasher, rand.Reader, privateKey, ct.AESKeyEncrypted, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt AES key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ct.Nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(ct.Nonce), aesgcm.NonceSize())
	}

	plaintext, err := aesgcm.Open(nil, ct.Nonce, ct.EncryptedPayload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}

	return plaintext, nil
}
