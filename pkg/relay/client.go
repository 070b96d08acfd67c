package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client talks to the intent relay: pricing quotes, activation checks,
// intent publication and settlement queries.
type Client struct {
	baseURL    string
	jwtToken   string
	httpClient *http.Client
}

// NewClient creates a relay client.
func NewClient(baseURL, jwtToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		jwtToken: jwtToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Quote fetches a price quote. The returned quote is single-use and only
// valid until its deadline.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var resp struct {
		Quote struct {
			DepositAddress string   `json:"depositAddress"`
			AmountIn       string   `json:"amountIn"`
			AmountOut      string   `json:"amountOut"`
			QuoteHashes    []string `json:"quoteHashes"`
			Deadline       string   `json:"deadline"`
		} `json:"quote"`
		QuoteRequest json.RawMessage `json:"quoteRequest"`
	}

	if err := c.post(ctx, "/v0/quote", req, &resp); err != nil {
		return nil, err
	}

	amountIn, err := parseAmount(resp.Quote.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("invalid amountIn in quote: %w", err)
	}
	amountOut, err := parseAmount(resp.Quote.AmountOut)
	if err != nil {
		return nil, fmt.Errorf("invalid amountOut in quote: %w", err)
	}
	if len(resp.Quote.QuoteHashes) == 0 {
		return nil, fmt.Errorf("quote response carries no quote hash")
	}

	deadline, err := time.Parse(time.RFC3339, resp.Quote.Deadline)
	if err != nil {
		deadline = req.Deadline
	}

	return &Quote{
		DepositAddress: resp.Quote.DepositAddress,
		AmountIn:       amountIn,
		AmountOut:      amountOut,
		QuoteHash:      resp.Quote.QuoteHashes[0],
		Deadline:       deadline,
	}, nil
}

// StorageDeposit returns the one-time activation amount the given account
// must hold before it can receive the token, in the smallest unit of the
// activation asset. Zero means the account is already active.
func (c *Client) StorageDeposit(ctx context.Context, assetID, accountID string) (*big.Int, error) {
	req := struct {
		Token         string `json:"token"`
		UserAccountID string `json:"userAccountId"`
	}{Token: assetID, UserAccountID: accountID}

	var resp struct {
		Amount string `json:"amount"`
	}
	if err := c.post(ctx, "/v0/tokens/storage", req, &resp); err != nil {
		return nil, err
	}
	if resp.Amount == "" {
		return big.NewInt(0), nil
	}
	return parseAmount(resp.Amount)
}

// Publish submits a signed intent. On success it returns the opaque intent
// hash used to follow settlement.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (string, error) {
	var resp struct {
		IntentHash string `json:"intentHash"`
	}
	if err := c.post(ctx, "/v0/intents", req, &resp); err != nil {
		return "", err
	}
	if resp.IntentHash == "" {
		return "", fmt.Errorf("relay accepted the intent but returned no intent hash")
	}
	return resp.IntentHash, nil
}

// Status queries the settlement state of a published intent.
func (c *Client) Status(ctx context.Context, intentHash string) (*Settlement, error) {
	endpoint := "/v0/intents/status?intentHash=" + url.QueryEscape(intentHash)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	var settlement Settlement
	if err := c.do(httpReq, &settlement); err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	return c.do(httpReq, out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwtToken)
	}
}

func (c *Client) do(req *http.Request, out interface{}) error {
	log.WithFields(log.Fields{"method": req.Method, "url": req.URL.Path}).Debug("relay request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read relay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Reason: reasonFromBody(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode relay response: %w", err)
	}
	return nil
}

// reasonFromBody extracts a short human-readable reason from an error body
// shaped {reason}, {data:{reason}} or {message}. Unknown shapes yield "".
func reasonFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
		Data    struct {
			Reason string `json:"reason"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	switch {
	case envelope.Reason != "":
		return envelope.Reason
	case envelope.Data.Reason != "":
		return envelope.Data.Reason
	default:
		return envelope.Message
	}
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount string: %q", s)
	}
	return amount, nil
}
