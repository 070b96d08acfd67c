package intents

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// IntentTokenDiff is the leg kind expressing signed balance deltas.
const IntentTokenDiff = "token_diff"

// TokenDiffLeg expresses a set of signed balance changes: the map goes from
// asset id to a signed decimal string in smallest units, negative meaning a
// debit from the signer and positive a credit.
type TokenDiffLeg struct {
	Intent   string            `json:"intent"`
	Diff     map[string]string `json:"diff"`
	Referral string            `json:"referral,omitempty"`
}

// Message is one canonical signable intent payload. It is built once,
// serialized once and immutable afterwards; Canonical always returns the
// exact bytes that get signed.
type Message struct {
	signerID string
	deadline time.Time
	nonce    string
	legs     []json.RawMessage
	payload  []byte
}

type wireMessage struct {
	SignerID string            `json:"signer_id"`
	Deadline string            `json:"deadline"`
	Nonce    string            `json:"nonce"`
	Intents  []json.RawMessage `json:"intents"`
}

func newMessage(signerID string, deadline time.Time, legs []json.RawMessage) (*Message, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}

	m := &Message{
		signerID: signerID,
		deadline: deadline,
		nonce:    nonce,
		legs:     legs,
	}
	m.payload, err = json.Marshal(wireMessage{
		SignerID: m.signerID,
		Deadline: m.deadline.UTC().Format(time.RFC3339),
		Nonce:    m.nonce,
		Intents:  m.legs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize intent message: %w", err)
	}
	return m, nil
}

// Canonical returns the serialized payload to sign and publish.
func (m *Message) Canonical() []byte {
	return m.payload
}

// SignerID returns the identity the message binds to.
func (m *Message) SignerID() string {
	return m.signerID
}

// Legs returns the ordered intents array.
func (m *Message) Legs() []json.RawMessage {
	out := make([]json.RawMessage, len(m.legs))
	copy(out, m.legs)
	return out
}

func newNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
