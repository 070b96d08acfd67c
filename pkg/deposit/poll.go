package deposit

import (
	"context"
	"errors"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"
)

// BalanceReader reports the current balance of one (account, asset) pair in
// smallest units. Reads are idempotent and side-effect free.
type BalanceReader interface {
	Balance(ctx context.Context) (*big.Int, error)
}

// PollWatcher detects a deposit by balance difference: it polls the deposit
// token balance until it reaches baseline + expected increase. Transient
// read errors are retried in place with bounded backoff; configuration
// errors abort immediately.
type PollWatcher struct {
	reader   BalanceReader
	baseline *big.Int
	expected *big.Int
	interval time.Duration
	timeout  time.Duration
}

// NewPollWatcher creates a balance-diff watcher.
func NewPollWatcher(reader BalanceReader, baseline, expectedIncrease *big.Int, interval, timeout time.Duration) *PollWatcher {
	if interval <= 0 {
		interval = 7 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &PollWatcher{
		reader:   reader,
		baseline: new(big.Int).Set(baseline),
		expected: new(big.Int).Set(expectedIncrease),
		interval: interval,
		timeout:  timeout,
	}
}

// WaitForDeposit implements Watcher.
func (w *PollWatcher) WaitForDeposit(ctx context.Context) error {
	target := new(big.Int).Add(w.baseline, w.expected)
	observed := new(big.Int).Set(w.baseline)

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	wait := w.interval
	failures := 0

	for {
		balance, err := w.reader.Balance(ctx)
		switch {
		case err == nil:
			failures = 0
			wait = w.interval
			observed.Set(balance)
			if balance.Cmp(target) >= 0 {
				log.WithFields(log.Fields{"balance": balance.String()}).Info("deposit detected")
				return nil
			}
		case errors.Is(err, ErrMisconfigured):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			// Transient RPC failure: retry in place, backing off up to 4x
			// the poll interval.
			failures++
			if wait < 4*w.interval {
				wait *= 2
			}
			log.WithFields(log.Fields{"failures": failures}).WithError(err).Warn("balance check failed, retrying")
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-deadline.C:
			timer.Stop()
			return &TimeoutError{Expected: target, Observed: observed, Elapsed: w.timeout}
		case <-timer.C:
		}
	}
}
