package deposit

import (
	"context"
	"fmt"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	log "github.com/sirupsen/logrus"
)

// RelayWatcher is the alternative detection strategy: instead of reading the
// chain, it polls the settlement relay's execution status for the deposit
// address until the relay reports the deposit as seen. Useful when no RPC
// endpoint is configured for the deposit chain.
type RelayWatcher struct {
	client         *oneclick.APIClient
	jwtToken       string
	depositAddress string
	interval       time.Duration
	timeout        time.Duration
}

// NewRelayWatcher creates a relay-backed deposit watcher.
func NewRelayWatcher(client *oneclick.APIClient, jwtToken, depositAddress string, interval, timeout time.Duration) *RelayWatcher {
	if interval <= 0 {
		interval = 7 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RelayWatcher{
		client:         client,
		jwtToken:       jwtToken,
		depositAddress: depositAddress,
		interval:       interval,
		timeout:        timeout,
	}
}

// WaitForDeposit implements Watcher. It returns once the relay reports any
// status past PENDING_DEPOSIT for the deposit address.
func (w *RelayWatcher) WaitForDeposit(ctx context.Context) error {
	authCtx := context.WithValue(ctx, oneclick.ContextAccessToken, w.jwtToken)

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	started := time.Now()
	for {
		resp, httpResp, err := w.client.OneClickAPI.GetExecutionStatus(authCtx).DepositAddress(w.depositAddress).Execute()
		if err != nil {
			log.WithError(err).Warn("execution status check failed, retrying")
		} else {
			httpResp.Body.Close()
			status := resp.GetStatus()
			if status != "" && status != "PENDING_DEPOSIT" {
				log.WithFields(log.Fields{"status": status}).Info("deposit detected by relay")
				return nil
			}
		}

		timer := time.NewTimer(w.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-deadline.C:
			timer.Stop()
			return fmt.Errorf("deposit not reported by relay after %s", time.Since(started).Round(time.Second))
		case <-timer.C:
		}
	}
}
