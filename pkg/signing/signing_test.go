package signing

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSignerRecoversToAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := &LocalSigner{privateKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}

	payload := []byte(`{"signer_id":"0xabc","intents":[]}`)
	envelope, err := signer.SignMessage(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, "erc191", envelope.Standard)
	assert.Equal(t, payload, envelope.Payload)
	require.Len(t, envelope.Signature, 65)
	assert.Contains(t, []byte{27, 28}, envelope.Signature[64])

	recoverable := make([]byte, 65)
	copy(recoverable, envelope.Signature)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(payload), recoverable)
	require.NoError(t, err)
	assert.Equal(t, signer.address, crypto.PubkeyToAddress(*pub))
}

func TestLocalSignerIdentityIsLowercaseAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := &LocalSigner{privateKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}

	identity := signer.Identity()
	assert.Equal(t, strings.ToLower(identity), identity)
	assert.True(t, strings.HasPrefix(identity, "0x"))
}

func TestLocalSignerHonorsCancellation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := &LocalSigner{privateKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = signer.SignMessage(ctx, []byte("payload"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLocalSignerRejectsBadKey(t *testing.T) {
	_, err := NewLocalSigner("not-a-key")
	assert.Error(t, err)
}

func TestUnwrapPassesPlainSignatureThrough(t *testing.T) {
	sig := make([]byte, 65)
	sig[0] = 0xaa

	out, err := UnwrapERC6492(sig)
	require.NoError(t, err)
	assert.Equal(t, sig, out)
	assert.False(t, IsERC6492(sig))
}

func TestUnwrapExtractsInnerSignature(t *testing.T) {
	inner := make([]byte, 65)
	for i := range inner {
		inner[i] = byte(i)
	}

	packed, err := erc6492Args.Pack(
		common.HexToAddress("0x00000000000000000000000000000000000000f1"),
		[]byte{0xde, 0xad},
		inner,
	)
	require.NoError(t, err)
	wrapped := append(packed, erc6492Magic...)

	assert.True(t, IsERC6492(wrapped))
	out, err := UnwrapERC6492(wrapped)
	require.NoError(t, err)
	assert.Equal(t, inner, out)
}

func TestUnwrapRejectsMalformedEnvelope(t *testing.T) {
	wrapped := append([]byte{0x01, 0x02, 0x03}, erc6492Magic...)
	_, err := UnwrapERC6492(wrapped)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	sig := make([]byte, 65)
	sig[64] = 0 // raw recovery id
	out, err := Normalize(sig)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "secp256k1:0x"))
	assert.Equal(t, "1b", out[len(out)-2:], "recovery byte normalized to 27")

	sig[64] = 28
	out, err = Normalize(sig)
	require.NoError(t, err)
	assert.Equal(t, "1c", out[len(out)-2:])
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Normalize(make([]byte, 64))
	assert.Error(t, err)

	bad := make([]byte, 65)
	bad[64] = 99
	_, err = Normalize(bad)
	assert.Error(t, err)
}
