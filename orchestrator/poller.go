package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrossflowLabs/swapflow-lib/backend"
	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

const (
	// DefaultPollInterval is the default delay between status polls for
	// cross-chain requests.
	DefaultPollInterval = 3 * time.Second
	// DefaultPollAttempts is the default status polling budget.
	DefaultPollAttempts = 20
)

// OutcomeState is the terminal classification of a polled request.
type OutcomeState int

const (
	// OutcomeSuccess means the backend reported a successful terminal reply.
	OutcomeSuccess OutcomeState = iota
	// OutcomeFailed means a terminal failure status was observed.
	OutcomeFailed
	// OutcomeTimeout means the polling budget ran out without a terminal
	// state. The backend-side request may still resolve later.
	OutcomeTimeout
)

func (s OutcomeState) String() string {
	switch s {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFailed:
		return "Failed"
	default:
		return "Timeout"
	}
}

// Outcome is the single terminal result of polling one request.
type Outcome struct {
	State OutcomeState
	// Reply is the structured terminal reply, set on success.
	Reply *types.Reply
	// FailedStatus is the status string that classified the request as
	// failed, set on failure.
	FailedStatus string
}

// StatusListener receives each newly observed status string exactly once, in
// observation order, even when the backend repeats statuses across polls.
type StatusListener func(status string)

// BalanceRefresher is the downstream collaborator notified after a
// successful operation. It receives the terminal reply because executed
// amounts can differ from the quoted ones under slippage.
type BalanceRefresher interface {
	// RefreshBalances refreshes the balances touched by the reply's tokens.
	//
	// Parameters:
	// - ctx: the context for managing the refresh.
	// - reply: the terminal reply with executed token ids and amounts.
	//
	// Returns:
	// - error: an error if the refresh fails; the poll outcome is unaffected.
	RefreshBalances(ctx context.Context, reply *types.Reply) error
}

// PollerConfig tunes one poller instance. Zero values fall back to defaults;
// Listener and Refresher may be nil.
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Listener    StatusListener
	Refresher   BalanceRefresher
}

// Poller converts the backend's asynchronous request processing into a
// single terminal outcome. Each poller is an owned handle scoped to one
// request id: the holder controls its lifecycle with Start/Stop, and the
// already-observed status set is private to the instance, never shared
// across concurrent pollers for other requests.
type Poller struct {
	gateway   backend.Gateway
	requestID string
	config    PollerConfig
	logger    *logrus.Logger

	seen map[string]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	outcome   *Outcome
	err       error
}

// NewPoller creates a poller for the given request id.
func NewPoller(gateway backend.Gateway, requestID string, config PollerConfig, logger *logrus.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultPollAttempts
	}

	return &Poller{
		gateway:   gateway,
		requestID: requestID,
		config:    config,
		logger:    logger,
		seen:      make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins polling in the background. The result is delivered through
// Wait. Calling Start more than once has no effect.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel

		go func() {
			defer close(p.done)
			p.outcome, p.err = p.Run(runCtx)
		}()
	})
}

// Stop cancels background polling. Stopping only ends local observation: the
// backend-side request keeps resolving asynchronously. Safe to call multiple
// times and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
}

// Wait blocks until background polling finishes and returns its result.
func (p *Poller) Wait() (*Outcome, error) {
	<-p.done
	return p.outcome, p.err
}

// Run polls synchronously until a terminal state, the attempt budget, or
// context cancellation. Poll errors are absorbed: a failed status fetch
// consumes an attempt and the loop keeps going, since the query is read-only
// and the next poll may succeed.
func (p *Poller) Run(ctx context.Context) (*Outcome, error) {
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		status, err := p.gateway.Status(ctx, p.requestID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.WithFields(logrus.Fields{
				"requestID": p.requestID,
				"attempt":   attempt,
				"error":     err,
			}).Warn("Status poll failed")
		} else if outcome := p.observe(ctx, status); outcome != nil {
			return outcome, nil
		}

		if attempt == p.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.config.Interval):
		}
	}

	p.logger.WithFields(logrus.Fields{
		"requestID":   p.requestID,
		"maxAttempts": p.config.MaxAttempts,
	}).Warn("Status polling budget exhausted without a terminal state")

	return &Outcome{State: OutcomeTimeout}, errors.Wrapf(commonerrors.ErrStatusTimeout,
		"request %s not terminal after %d polls", p.requestID, p.config.MaxAttempts)
}

// observe folds one status fetch into the poller state. It surfaces each
// status string to the listener exactly once and returns a terminal outcome
// as soon as one is detected, scanning the sequence in order so that the
// first terminal state wins.
func (p *Poller) observe(ctx context.Context, status *types.RequestStatus) *Outcome {
	for _, s := range status.Statuses {
		if _, ok := p.seen[s]; ok {
			// Terminal states are final: re-observing one is not a new
			// event.
			continue
		}
		p.seen[s] = struct{}{}

		if p.config.Listener != nil {
			p.config.Listener(s)
		}

		if strings.Contains(s, types.StatusFailedMarker) {
			p.logger.WithFields(logrus.Fields{
				"requestID": p.requestID,
				"status":    s,
			}).Error("Request failed")
			return &Outcome{State: OutcomeFailed, FailedStatus: s}
		}
	}

	if status.Reply != nil && status.Reply.Status == types.ReplyStatusSuccess {
		p.logger.WithFields(logrus.Fields{
			"requestID":     p.requestID,
			"receiveToken":  status.Reply.ReceiveToken,
			"receiveAmount": status.Reply.ReceiveAmount,
		}).Info("Request succeeded")

		if p.config.Refresher != nil {
			if err := p.config.Refresher.RefreshBalances(ctx, status.Reply); err != nil {
				p.logger.WithError(err).Warn("Balance refresh failed")
			}
		}

		return &Outcome{State: OutcomeSuccess, Reply: status.Reply}
	}

	return nil
}
