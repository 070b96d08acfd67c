package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"ping-onramp/config"
	"ping-onramp/pkg/catalog"
	"ping-onramp/pkg/deposit"
	"ping-onramp/pkg/intents"
	"ping-onramp/pkg/progress"
	"ping-onramp/pkg/quote"
	"ping-onramp/pkg/relay"
	"ping-onramp/pkg/signing"
)

// Resolver is the slice of the token catalog the saga needs.
type Resolver interface {
	Resolve(symbol, chain string) (catalog.Token, error)
}

// Relay is the settlement-network surface the saga calls.
type Relay interface {
	Quote(ctx context.Context, req relay.QuoteRequest) (*relay.Quote, error)
	StorageDeposit(ctx context.Context, assetID, accountID string) (*big.Int, error)
	Publish(ctx context.Context, req relay.PublishRequest) (string, error)
	Status(ctx context.Context, intentHash string) (*relay.Settlement, error)
}

// WatcherFactory builds the deposit watcher for one request once the expected
// balance increase is known. The factory captures the pre-redirect baseline.
type WatcherFactory func(req Request, expectedIncrease *big.Int) (deposit.Watcher, error)

// Deps collects the injected capabilities of one orchestrator.
type Deps struct {
	Catalog Resolver
	Relay   Relay
	Signer  signing.Signer
	Watcher WatcherFactory
	Tracker *progress.Tracker
	// History is optional; without it no records are persisted.
	History *History
	// Withdraw defaults to the NEP-141 builder.
	Withdraw intents.WithdrawMessageBuilder
	Config   *config.Config
}

// Saga sequences one withdrawal: deposit wait, quote aggregation, message
// build, sign and publish, settlement wait. It is fail-fast with no rollback
// and not re-entrant; publish runs at most once per execution.
type Saga struct {
	catalog Resolver
	relay   Relay
	signer  signing.Signer
	watcher WatcherFactory
	tracker *progress.Tracker
	history *History
	builder *intents.Builder

	depositAsset    string
	activationAsset string
	referral        string

	settlementPoll    time.Duration
	settlementTimeout time.Duration
	explorers         map[string]string

	active atomic.Bool
}

// activationChain is where activation deposits are funded; the settlement
// network books all balances there.
const activationChain = "near"

// New creates a saga from its dependencies.
func New(deps Deps) *Saga {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Get()
	}

	withdraw := deps.Withdraw
	if withdraw == nil {
		withdraw = intents.NEP141Withdraw{}
	}

	return &Saga{
		catalog:           deps.Catalog,
		relay:             deps.Relay,
		signer:            deps.Signer,
		watcher:           deps.Watcher,
		tracker:           deps.Tracker,
		history:           deps.History,
		builder:           intents.NewBuilder(cfg.Referral, withdraw),
		depositAsset:      cfg.DepositAsset,
		activationAsset:   cfg.ActivationAsset,
		referral:          cfg.Referral,
		settlementPoll:    cfg.SettlementPollInterval,
		settlementTimeout: cfg.SettlementTimeout,
		explorers:         cfg.Explorers,
	}
}

// Run executes the withdrawal. Errors never escape as panics; the first
// failure is normalized, written to the progress cell and returned. A second
// Run while one is active returns ErrBusy.
func (s *Saga) Run(ctx context.Context, req Request) (*Result, error) {
	if !s.active.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.active.Store(false)

	record := s.begin(req)

	// Everything before the deposit wait must fail without touching the
	// network.
	origin, err := s.catalog.Resolve(s.depositAsset, req.DepositChain)
	if err != nil {
		return nil, s.fail(record, false, &ConfigurationError{Reason: err.Error()})
	}
	destination, err := s.catalog.Resolve(req.TargetAsset, req.TargetChain)
	if err != nil {
		return nil, s.fail(record, false, &ConfigurationError{Reason: err.Error()})
	}
	activation, err := s.catalog.Resolve(s.activationAsset, activationChain)
	if err != nil {
		return nil, s.fail(record, false, &ConfigurationError{Reason: err.Error()})
	}

	amountIn, err := quote.ParseUnits(req.FiatAmount, origin.Decimals)
	if err != nil {
		return nil, s.fail(record, false, &ConfigurationError{Reason: err.Error()})
	}
	if amountIn.Sign() <= 0 {
		return nil, s.fail(record, false, &ConfigurationError{Reason: fmt.Sprintf("amount %q is not positive", req.FiatAmount)})
	}

	refundTo := req.RefundAddress
	if refundTo == "" {
		refundTo = s.signer.Identity()
	}

	s.advance(record, progress.StageDepositing, progress.Patch{
		Message:  progress.Str("Waiting for the deposit to arrive"),
		AmountIn: progress.Str(quote.FormatUnits(amountIn, origin.Decimals, quote.MaxDisplayDecimals) + " " + origin.Symbol),
	})

	watcher, err := s.watcher(req, amountIn)
	if err != nil {
		return nil, s.fail(record, false, &ConfigurationError{Reason: err.Error()})
	}
	if err := watcher.WaitForDeposit(ctx); err != nil {
		return nil, s.fail(record, false, classifyDeposit(err))
	}

	// The deposit has landed. From here on failures must surface the support
	// path rather than retry the saga.
	s.advance(record, progress.StageQuerying, progress.Patch{
		Message: progress.Str("Fetching withdrawal quotes"),
	})

	agg, err := quote.NewAggregator(s.relay, s.referral).Run(ctx, quote.Params{
		Origin:      origin,
		Destination: destination,
		Activation:  activation,
		AmountIn:    amountIn,
		Recipient:   req.RecipientAddress,
		RefundTo:    refundTo,
		Commit:      true,
	})
	if err != nil {
		return nil, s.fail(record, true, classifyQuote(ctx, err))
	}

	s.advance(record, progress.StageSigning, progress.Patch{
		Message:   progress.Str("Waiting for your signature"),
		AmountOut: progress.Str(quote.FormatUnits(agg.NetOut, destination.Decimals, quote.MaxDisplayDecimals) + " " + destination.Symbol),
	})

	message, err := s.builder.Build(intents.BuildParams{
		Aggregate:   agg,
		Origin:      origin,
		Destination: destination,
		Activation:  activation,
		Recipient:   req.RecipientAddress,
		SignerID:    s.signer.Identity(),
		Deadline:    agg.Primary.Deadline,
	})
	if err != nil {
		return nil, s.fail(record, true, &ConfigurationError{Reason: err.Error()})
	}

	envelope, err := s.signer.SignMessage(ctx, message.Canonical())
	if err != nil {
		return nil, s.fail(record, true, classifySign(err))
	}

	rawSig, err := signing.UnwrapERC6492(envelope.Signature)
	if err != nil {
		return nil, s.fail(record, true, &PublishError{Reason: err.Error()})
	}
	wireSig, err := signing.Normalize(rawSig)
	if err != nil {
		return nil, s.fail(record, true, &PublishError{Reason: err.Error()})
	}

	s.advance(record, progress.StageWithdrawing, progress.Patch{
		Message: progress.Str("Publishing the withdrawal"),
	})

	// Publish mutates relay state; it runs at most once per execution.
	intentHash, err := s.relay.Publish(ctx, relay.PublishRequest{
		SignatureEnvelope: relay.SignedEnvelope{
			Standard:  envelope.Standard,
			Payload:   string(envelope.Payload),
			Signature: wireSig,
		},
		SignerIdentity: s.signer.Identity(),
		QuoteHashes:    agg.QuoteHashes(),
	})
	if err != nil {
		return nil, s.fail(record, true, classifyPublish(ctx, err))
	}

	if record != nil {
		record.IntentHash = intentHash
		s.persist(record)
	}
	log.WithFields(log.Fields{"intent_hash": intentHash}).Info("withdrawal published")

	settlement, err := s.awaitSettlement(ctx, intentHash)
	if err != nil {
		return nil, s.fail(record, true, err)
	}

	result := &Result{
		AmountOut:   s.deliveredAmount(settlement, agg, destination),
		ExplorerURL: s.explorerURL(req.TargetChain, settlement, intentHash),
		IntentHash:  intentHash,
	}

	s.advance(record, progress.StageDone, progress.Patch{
		Message:     progress.Str("Withdrawal complete"),
		AmountOut:   progress.Str(result.AmountOut),
		ExplorerURL: progress.Str(result.ExplorerURL),
	})

	if record != nil {
		record.AmountOut = result.AmountOut
		record.ExplorerURL = result.ExplorerURL
		s.persist(record)
	}

	return result, nil
}

// awaitSettlement polls the relay until the intent reaches a terminal status.
// Refunds, failures and expiries are failures, never success.
func (s *Saga) awaitSettlement(ctx context.Context, intentHash string) (*relay.Settlement, error) {
	interval := s.settlementPoll
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := s.settlementTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		settlement, err := s.relay.Status(ctx, intentHash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &UserCancelled{}
			}
			log.WithError(err).Warn("settlement status check failed, retrying")
		} else if settlement.Status.Terminal() {
			if settlement.Status != relay.StatusSuccess {
				return nil, &SettlementFailure{Status: settlement.Status}
			}
			return settlement, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &UserCancelled{}
		case <-deadline.C:
			timer.Stop()
			return nil, &SettlementFailure{Reason: fmt.Sprintf("no terminal status after %s", timeout)}
		case <-timer.C:
		}
	}
}

// deliveredAmount prefers the settlement-reported output, falling back to the
// quoted net amount.
func (s *Saga) deliveredAmount(settlement *relay.Settlement, agg *quote.Aggregate, destination catalog.Token) string {
	amount := agg.NetOut
	if reported, ok := new(big.Int).SetString(settlement.SwapDetails.AmountOut, 10); ok && reported.Sign() > 0 {
		amount = reported
	}
	return quote.FormatUnits(amount, destination.Decimals, quote.MaxDisplayDecimals) + " " + destination.Symbol
}

// explorerURL templates the destination chain's explorer with the settlement
// transaction hash, falling back to the intent hash.
func (s *Saga) explorerURL(targetChain string, settlement *relay.Settlement, intentHash string) string {
	template, ok := s.explorers[strings.ToLower(targetChain)]
	if !ok {
		return ""
	}

	hash := intentHash
	if hashes := settlement.SwapDetails.DestinationChainTxHashes; len(hashes) > 0 && hashes[0] != "" {
		hash = hashes[0]
	}
	return fmt.Sprintf(template, hash)
}

func (s *Saga) begin(req Request) *Record {
	if s.history == nil {
		return nil
	}
	record, err := s.history.Begin(req)
	if err != nil {
		log.WithError(err).Warn("failed to persist withdrawal record")
		return nil
	}
	return record
}

func (s *Saga) advance(record *Record, stage progress.Stage, patch progress.Patch) {
	if err := s.tracker.Advance(stage, patch); err != nil {
		log.WithError(err).Warn("progress update rejected")
	}
	if record != nil {
		record.Stages = append(record.Stages, stage.String())
		s.persist(record)
	}
}

// fail normalizes the step error into the terminal state. After the deposit
// has landed the message points at the support path instead of inviting a
// retry.
func (s *Saga) fail(record *Record, deposited bool, err error) error {
	display := err.Error()

	message := display
	if deposited {
		reference := "your intent hash"
		if record != nil {
			reference = "reference " + record.ID
		}
		message = fmt.Sprintf("Your deposit is safe. Contact support with %s.", reference)
	}

	if trackerErr := s.tracker.Advance(progress.StageError, progress.Patch{
		Message: progress.Str(message),
		Err:     progress.Str(display),
	}); trackerErr != nil {
		log.WithError(trackerErr).Warn("progress update rejected")
	}

	if record != nil {
		record.Stages = append(record.Stages, progress.StageError.String())
		record.Error = display
		s.persist(record)
	}

	log.WithError(err).Error("withdrawal failed")
	return err
}

func (s *Saga) persist(record *Record) {
	if err := s.history.Update(record); err != nil {
		log.WithError(err).Warn("failed to persist withdrawal record")
	}
}

func classifyDeposit(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &UserCancelled{}
	case errors.Is(err, deposit.ErrMisconfigured):
		return &ConfigurationError{Reason: err.Error()}
	default:
		return &NetworkError{Reason: err.Error()}
	}
}

func classifyQuote(ctx context.Context, err error) error {
	var routeErr *quote.RouteError
	var storageErr *quote.StorageError
	var nonPositiveErr *quote.NonPositiveError

	switch {
	case ctx.Err() != nil:
		return &UserCancelled{}
	case errors.As(err, &routeErr):
		return &RouteNotFoundError{Reason: routeErr.Reason}
	case errors.As(err, &storageErr):
		return &StorageQuoteError{Reason: storageErr.Reason}
	case errors.As(err, &nonPositiveErr):
		return &StorageQuoteError{Reason: nonPositiveErr.Error()}
	default:
		return &NetworkError{Reason: err.Error()}
	}
}

func classifySign(err error) error {
	if errors.Is(err, signing.ErrRejected) || errors.Is(err, context.Canceled) {
		return &UserCancelled{}
	}
	return &NetworkError{Reason: err.Error()}
}

func classifyPublish(ctx context.Context, err error) error {
	var apiErr *relay.APIError
	switch {
	case ctx.Err() != nil:
		return &UserCancelled{}
	case errors.As(err, &apiErr):
		return &PublishError{Reason: apiErr.Error()}
	default:
		return &NetworkError{Reason: err.Error()}
	}
}
