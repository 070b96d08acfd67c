package signing

import (
	"context"
	"errors"
)

// ErrRejected is returned (possibly wrapped) by signers when the user
// declines the signature request.
var ErrRejected = errors.New("signature request rejected")

// Envelope carries a produced signature. The raw bytes may still be wrapped
// in a smart-contract-wallet detection envelope; UnwrapERC6492 extracts the
// underlying signature before submission.
type Envelope struct {
	// Standard names the signature scheme, e.g. "erc191".
	Standard  string
	Payload   []byte
	Signature []byte
}

// Signer is the injected wallet capability. Signing may require user
// interaction and suspend indefinitely; implementations must honor context
// cancellation while waiting.
type Signer interface {
	// SignMessage signs the canonical payload with a personal-message
	// signature scheme.
	SignMessage(ctx context.Context, payload []byte) (*Envelope, error)
	// Identity returns the normalized signer identity submitted to the
	// relay alongside the signature.
	Identity() string
}
