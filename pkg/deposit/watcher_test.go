package deposit

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-onramp/config"
)

// fakeReader replays a scripted sequence of balance reads, repeating the
// last entry once the script runs out.
type fakeReader struct {
	script []func() (*big.Int, error)
	calls  int
}

func balanceOf(v int64) func() (*big.Int, error) {
	return func() (*big.Int, error) { return big.NewInt(v), nil }
}

func readError(err error) func() (*big.Int, error) {
	return func() (*big.Int, error) { return nil, err }
}

func (f *fakeReader) Balance(ctx context.Context) (*big.Int, error) {
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.calls++
	return f.script[i]()
}

func TestWaitForDepositDetectsIncrease(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		balanceOf(1000),
		balanceOf(1000),
		balanceOf(1000 + 250),
	}}
	w := NewPollWatcher(reader, big.NewInt(1000), big.NewInt(250), time.Millisecond, time.Second)

	err := w.WaitForDeposit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reader.calls)
}

func TestWaitForDepositAcceptsOverpayment(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		balanceOf(5000),
	}}
	w := NewPollWatcher(reader, big.NewInt(1000), big.NewInt(250), time.Millisecond, time.Second)

	err := w.WaitForDeposit(context.Background())
	assert.NoError(t, err)
}

func TestWaitForDepositRetriesTransientErrors(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		readError(errors.New("connection reset")),
		readError(errors.New("connection reset")),
		balanceOf(1250),
	}}
	w := NewPollWatcher(reader, big.NewInt(1000), big.NewInt(250), time.Millisecond, time.Second)

	err := w.WaitForDeposit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reader.calls)
}

func TestWaitForDepositAbortsOnMisconfiguration(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		readError(ErrMisconfigured),
	}}
	w := NewPollWatcher(reader, big.NewInt(0), big.NewInt(1), time.Millisecond, time.Second)

	err := w.WaitForDeposit(context.Background())
	assert.ErrorIs(t, err, ErrMisconfigured)
	assert.Equal(t, 1, reader.calls, "configuration errors are not retried")
}

func TestWaitForDepositTimesOut(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		balanceOf(1100),
	}}
	w := NewPollWatcher(reader, big.NewInt(1000), big.NewInt(250), time.Millisecond, 20*time.Millisecond)

	err := w.WaitForDeposit(context.Background())

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "1250", timeoutErr.Expected.String())
	assert.Equal(t, "1100", timeoutErr.Observed.String(), "timeout reports the last observed balance")
	assert.Contains(t, err.Error(), "expected balance at least 1250, observed 1100")
}

func TestWaitForDepositHonorsCancellation(t *testing.T) {
	reader := &fakeReader{script: []func() (*big.Int, error){
		balanceOf(0),
	}}
	w := NewPollWatcher(reader, big.NewInt(0), big.NewInt(1), 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	err := w.WaitForDeposit(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForChainRejectsUnknownChain(t *testing.T) {
	cfg := &config.Config{EVMNetworks: map[string]config.EVMNetwork{}}

	_, err := ForChain(cfg, "tron", "0x0000000000000000000000000000000000000001", "", big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(t, err, ErrMisconfigured)
	assert.Contains(t, err.Error(), "tron")
}

func TestForChainRejectsMissingRPCUrl(t *testing.T) {
	cfg := &config.Config{EVMNetworks: map[string]config.EVMNetwork{
		"base": {},
	}}

	_, err := ForChain(cfg, "base", "0x0000000000000000000000000000000000000001", "", big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(t, err, ErrMisconfigured)
}
