package withdrawal

import (
	"errors"
	"fmt"

	"ping-onramp/pkg/relay"
)

// ErrBusy is returned by Run while another withdrawal is still in flight on
// the same orchestrator.
var ErrBusy = errors.New("a withdrawal is already in progress")

// ConfigurationError is an unmapped token or chain. Fatal, never retried,
// raised before any network call.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// RouteNotFoundError means no viable quote exists for the primary swap.
type RouteNotFoundError struct {
	Reason string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("Could not find a bridge route: %s", e.Reason)
}

// StorageQuoteError means the activation check or the activation quote
// failed, including a net deliverable amount of zero or less.
type StorageQuoteError struct {
	Reason string
}

func (e *StorageQuoteError) Error() string {
	return fmt.Sprintf("could not price the activation deposit: %s", e.Reason)
}

// PublishError means the relay rejected the signed payload.
type PublishError struct {
	Reason string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("the relay rejected the withdrawal: %s", e.Reason)
}

// SettlementFailure is a post-publish refund, failure or expiry. The deposit
// has already landed, so funds may need manual recovery.
type SettlementFailure struct {
	Status relay.SettlementStatus
	Reason string
}

func (e *SettlementFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("settlement ended in %s: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("settlement ended in %s", e.Status)
}

// NetworkError is a transient failure on an idempotent read; retried at the
// call site, fatal when the retry budget is exhausted.
type NetworkError struct {
	Reason string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Reason)
}

// UserCancelled means the signer declined the request or the host tore the
// flow down.
type UserCancelled struct{}

func (e *UserCancelled) Error() string {
	return "withdrawal cancelled"
}
