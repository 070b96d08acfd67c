package signing

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner signs with an in-process secp256k1 key using the Ethereum
// personal-message scheme. It exists for the CLI and tests; an embedding
// host injects its own wallet-backed Signer.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewLocalSigner parses a hex-encoded private key.
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}
	return &LocalSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// SignMessage signs the payload under the EIP-191 personal-message prefix.
func (s *LocalSigner) SignMessage(ctx context.Context, payload []byte) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := accounts.TextHash(payload)
	signature, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	// crypto.Sign yields a recovery id of 0/1; wallets emit 27/28.
	signature[64] += 27

	return &Envelope{
		Standard:  "erc191",
		Payload:   payload,
		Signature: signature,
	}, nil
}

// Identity returns the lowercase hex address of the key.
func (s *LocalSigner) Identity() string {
	return strings.ToLower(s.address.Hex())
}
