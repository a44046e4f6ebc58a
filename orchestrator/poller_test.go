package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/CrossflowLabs/swapflow-lib/common/errors"
	"github.com/CrossflowLabs/swapflow-lib/common/types"
)

// scriptedGateway serves a scripted sequence of status views, repeating the
// last one once the script runs out.
type scriptedGateway struct {
	mu     sync.Mutex
	script []*types.RequestStatus
	errs   []error
	polls  int
}

func (g *scriptedGateway) Quote(_ context.Context, _, _, _ string) (*types.Quote, error) {
	return nil, errors.New("not used")
}

func (g *scriptedGateway) SubmitAsync(_ context.Context, _ *types.OperationRequest) (string, error) {
	return "", errors.New("not used")
}

func (g *scriptedGateway) Status(_ context.Context, requestID string) (*types.RequestStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.polls
	g.polls++

	if idx < len(g.errs) && g.errs[idx] != nil {
		return nil, g.errs[idx]
	}
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	return g.script[idx], nil
}

func pending(statuses ...string) *types.RequestStatus {
	return &types.RequestStatus{RequestID: "req-1", Statuses: statuses}
}

func successful(statuses []string, reply *types.Reply) *types.RequestStatus {
	reply.Status = types.ReplyStatusSuccess
	return &types.RequestStatus{RequestID: "req-1", Statuses: statuses, Reply: reply}
}

// recordingRefresher records the replies it was asked to refresh from.
type recordingRefresher struct {
	replies []*types.Reply
}

func (r *recordingRefresher) RefreshBalances(_ context.Context, reply *types.Reply) error {
	r.replies = append(r.replies, reply)
	return nil
}

func fastConfig(listener StatusListener, refresher BalanceRefresher) PollerConfig {
	return PollerConfig{
		Interval:    time.Millisecond,
		MaxAttempts: 50,
		Listener:    listener,
		Refresher:   refresher,
	}
}

func TestPollerStatusDedup(t *testing.T) {
	gateway := &scriptedGateway{script: []*types.RequestStatus{
		pending(types.StatusTokenReceived),
		pending(types.StatusTokenReceived),
		pending(types.StatusTokenReceived, types.StatusSendingToken),
		successful(
			[]string{types.StatusTokenReceived, types.StatusSendingToken, types.StatusTokenSent},
			&types.Reply{ReceiveToken: "USDC", ReceiveAmount: "949000"},
		),
	}}

	var observed []string
	poller := NewPoller(gateway, "req-1", fastConfig(func(s string) {
		observed = append(observed, s)
	}, nil), newTestLogger())

	outcome, err := poller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	// Repeated observations of the same status surface exactly once, in
	// order.
	assert.Equal(t, []string{
		types.StatusTokenReceived,
		types.StatusSendingToken,
		types.StatusTokenSent,
	}, observed)
}

func TestPollerFirstTerminalWins(t *testing.T) {
	// The sequence carries a success-looking status before the failure;
	// the failure still classifies the request.
	gateway := &scriptedGateway{script: []*types.RequestStatus{
		successful(
			[]string{types.StatusTokenReceived, types.StatusSuccess, "Swap Failed: slippage exceeded"},
			&types.Reply{},
		),
	}}

	poller := NewPoller(gateway, "req-1", fastConfig(nil, nil), newTestLogger())

	outcome, err := poller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.State)
	assert.Equal(t, "Swap Failed: slippage exceeded", outcome.FailedStatus)
	assert.Equal(t, 1, gateway.polls)
}

func TestPollerSuccessTriggersBalanceRefreshWithExecutedAmounts(t *testing.T) {
	// Executed amounts differ from the quoted ones; the refresher must see
	// the executed values from the terminal reply.
	gateway := &scriptedGateway{script: []*types.RequestStatus{
		pending(types.StatusTokenReceived),
		successful(
			[]string{types.StatusTokenReceived, types.StatusTokenSent},
			&types.Reply{
				PayToken:      "SOL",
				PayAmount:     "1000000",
				ReceiveToken:  "USDC",
				ReceiveAmount: "948213",
			},
		),
	}}

	refresher := &recordingRefresher{}
	poller := NewPoller(gateway, "req-1", fastConfig(nil, refresher), newTestLogger())

	outcome, err := poller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)

	require.Len(t, refresher.replies, 1)
	assert.Equal(t, "948213", refresher.replies[0].ReceiveAmount)
	assert.Equal(t, "948213", outcome.Reply.ReceiveAmount)
}

func TestPollerTimeoutIsDistinctFromFailure(t *testing.T) {
	gateway := &scriptedGateway{script: []*types.RequestStatus{
		pending(types.StatusTokenReceived),
	}}

	poller := NewPoller(gateway, "req-1", PollerConfig{
		Interval:    time.Millisecond,
		MaxAttempts: 5,
	}, newTestLogger())

	outcome, err := poller.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, commonerrors.ErrStatusTimeout)
	assert.Equal(t, commonerrors.KindStatusTimeout, commonerrors.Classify(err))
	require.NotNil(t, outcome)
	assert.Equal(t, OutcomeTimeout, outcome.State)
	assert.Equal(t, 5, gateway.polls)
}

func TestPollerAbsorbsPollErrors(t *testing.T) {
	gateway := &scriptedGateway{
		errs: []error{errors.New("network error"), nil},
		script: []*types.RequestStatus{
			nil,
			successful([]string{types.StatusTokenSent}, &types.Reply{}),
		},
	}

	poller := NewPoller(gateway, "req-1", fastConfig(nil, nil), newTestLogger())

	outcome, err := poller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.State)
}

func TestPollerStartStopOwnedHandle(t *testing.T) {
	gateway := &scriptedGateway{script: []*types.RequestStatus{
		pending(types.StatusTokenReceived),
	}}

	poller := NewPoller(gateway, "req-1", PollerConfig{
		Interval:    time.Hour, // would hang forever without Stop
		MaxAttempts: 1000,
	}, newTestLogger())

	poller.Start(context.Background())
	poller.Stop()

	_, err := poller.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// Stop is idempotent.
	poller.Stop()
}

func TestPollerSeenSetIsPerInstance(t *testing.T) {
	script := []*types.RequestStatus{
		successful([]string{types.StatusTokenReceived, types.StatusTokenSent}, &types.Reply{}),
	}

	var first, second []string
	p1 := NewPoller(&scriptedGateway{script: script}, "req-1", fastConfig(func(s string) {
		first = append(first, s)
	}, nil), newTestLogger())
	p2 := NewPoller(&scriptedGateway{script: script}, "req-2", fastConfig(func(s string) {
		second = append(second, s)
	}, nil), newTestLogger())

	_, err := p1.Run(context.Background())
	require.NoError(t, err)
	_, err = p2.Run(context.Background())
	require.NoError(t, err)

	// Observation state is scoped to each handle; the second poller sees
	// the full sequence again.
	assert.Equal(t, first, second)
}
