package sealing

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func testPayload() BidPayload {
	return BidPayload{
		Price:    decimal.NewFromInt(87),
		Quantity: decimal.NewFromInt(95000),
		Salt:     "f3a9c2",
	}
}

func TestSealOpenRoundtrip(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	blob, err := SealBid(km.PublicKey, testPayload())
	assert.NoError(t, err)
	assert.NotNil(t, blob)

	opened, err := OpenBid(km, blob)
	assert.NoError(t, err)
	check.True(t, opened.Price.Equal(decimal.NewFromInt(87)))
	check.True(t, opened.Quantity.Equal(decimal.NewFromInt(95000)))
	check.Equal(t, "f3a9c2", opened.Salt)
}

func TestSealOpenRoundtripSHA1(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	blob, err := SealBidWithHash(km.PublicKey, testPayload(), HashAlgorithmSHA1)
	assert.NoError(t, err)

	opened, err := OpenBid(km, blob)
	assert.NoError(t, err)
	check.Equal(t, "f3a9c2", opened.Salt)
}

func TestSealRejectsUnknownHashAlgorithm(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	_, err = SealBidWithHash(km.PublicKey, testPayload(), HashAlgorithm("MD5"))
	check.Error(t, err)
}

func TestOpenFailsWithWrongKey(t *testing.T) {
	sealer, err := NewKeyManager()
	assert.NoError(t, err)
	other, err := NewKeyManager()
	assert.NoError(t, err)

	blob, err := SealBid(sealer.PublicKey, testPayload())
	assert.NoError(t, err)

	_, err = OpenBid(other, blob)
	check.Error(t, err)
}

func TestOpenFailsOnTamperedCiphertext(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	blob, err := SealBid(km.PublicKey, testPayload())
	assert.NoError(t, err)

	// Flip a bit inside the GCM-authenticated payload so the tag check
	// fails. The envelope is decoded first so the flip cannot land in CBOR
	// framing, where the authentication tag would never see it.
	var env envelope
	assert.NoError(t, cbor.Unmarshal(blob, &env))
	env.EncryptedPayload[len(env.EncryptedPayload)/2] ^= 0x01
	tampered, err := cbor.Marshal(env)
	assert.NoError(t, err)

	_, err = OpenBid(km, tampered)
	check.Error(t, err)
}

func TestOpenFailsOnTamperedKeyWrap(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	blob, err := SealBid(km.PublicKey, testPayload())
	assert.NoError(t, err)

	// Corrupting the RSA-OAEP key wrap must fail decryption outright.
	var env envelope
	assert.NoError(t, cbor.Unmarshal(blob, &env))
	env.AESKeyEncrypted[0] ^= 0x01
	tampered, err := cbor.Marshal(env)
	assert.NoError(t, err)

	_, err = OpenBid(km, tampered)
	check.Error(t, err)
}

func TestOpenFailsOnGarbageBlob(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	_, err = OpenBid(km, []byte("not cbor at all"))
	check.Error(t, err)
}

func TestKeyManagerPEMRoundtrip(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	restored, err := LoadKeyManager(km.PrivateKeyPEM())
	assert.NoError(t, err)

	// The restored key opens blobs sealed under the original public key.
	blob, err := SealBid(km.PublicKey, testPayload())
	assert.NoError(t, err)
	opened, err := OpenBid(restored, blob)
	assert.NoError(t, err)
	check.Equal(t, "f3a9c2", opened.Salt)
}

func TestParsePublicKeyPEM(t *testing.T) {
	km, err := NewKeyManager()
	assert.NoError(t, err)

	pemStr, err := km.PublicKeyPEM()
	assert.NoError(t, err)

	parsed, err := ParsePublicKeyPEM([]byte(pemStr))
	assert.NoError(t, err)
	check.Equal(t, km.PublicKey.E, parsed.E)
	check.True(t, km.PublicKey.N.Cmp(parsed.N) == 0)

	_, err = ParsePublicKeyPEM([]byte("junk"))
	check.Error(t, err)
}
