package signing

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// erc6492Magic is the 32-byte suffix marking a signature wrapped for
// counterfactual smart-contract-wallet verification.
var erc6492Magic = common.Hex2Bytes("6492649264926492649264926492649264926492649264926492649264926492")

var erc6492Args = func() abi.Arguments {
	addressType, _ := abi.NewType("address", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{
		{Name: "factory", Type: addressType},
		{Name: "factoryCalldata", Type: bytesType},
		{Name: "signature", Type: bytesType},
	}
}()

// IsERC6492 reports whether the signature carries the ERC-6492 wrapper.
func IsERC6492(signature []byte) bool {
	return len(signature) > len(erc6492Magic) &&
		bytes.Equal(signature[len(signature)-len(erc6492Magic):], erc6492Magic)
}

// UnwrapERC6492 extracts the underlying signature bytes from an ERC-6492
// envelope. Unwrapped signatures pass through untouched; not every chain
// wraps.
func UnwrapERC6492(signature []byte) ([]byte, error) {
	if !IsERC6492(signature) {
		return signature, nil
	}

	values, err := erc6492Args.Unpack(signature[:len(signature)-len(erc6492Magic)])
	if err != nil {
		return nil, fmt.Errorf("malformed ERC-6492 envelope: %w", err)
	}

	inner, ok := values[2].([]byte)
	if !ok || len(inner) == 0 {
		return nil, fmt.Errorf("ERC-6492 envelope carries no inner signature")
	}
	return inner, nil
}

// Normalize renders a 65-byte secp256k1 signature in the relay wire format,
// forcing the recovery byte to the 27/28 convention.
func Normalize(signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("expected 65-byte signature, got %d bytes", len(signature))
	}

	out := make([]byte, 65)
	copy(out, signature)
	if out[64] < 27 {
		out[64] += 27
	}
	if out[64] != 27 && out[64] != 28 {
		return "", fmt.Errorf("invalid recovery byte %d", signature[64])
	}

	return "secp256k1:" + hexutil.Encode(out), nil
}
