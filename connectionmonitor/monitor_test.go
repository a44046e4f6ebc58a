package connectionmonitor

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeClient struct {
	mu            sync.Mutex
	checkErrs     []error
	checks        int
	reconnectErrs []error
	reconnects    int
}

func (c *fakeClient) CheckConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.checks < len(c.checkErrs) {
		err = c.checkErrs[c.checks]
	}
	c.checks++
	return err
}

func (c *fakeClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.reconnects < len(c.reconnectErrs) {
		err = c.reconnectErrs[c.reconnects]
	}
	c.reconnects++
	return err
}

func (c *fakeClient) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks, c.reconnects
}

func TestMonitorReconnectsAfterFailedCheck(t *testing.T) {
	client := &fakeClient{
		checkErrs: []error{errors.New("connection reset")},
	}
	monitor := NewConnectionMonitorWithConfig(client, newTestLogger(), "testnet", Config{
		CheckInterval:  5 * time.Millisecond,
		ReconnectDelay: time.Millisecond,
		MaxReconnects:  3,
	})

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	assert.Eventually(t, func() bool {
		checks, reconnects := client.counts()
		return checks >= 2 && reconnects == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorGivesUpAfterMaxReconnects(t *testing.T) {
	reconnectErr := errors.New("node unreachable")
	client := &fakeClient{
		checkErrs:     []error{errors.New("connection reset")},
		reconnectErrs: []error{reconnectErr, reconnectErr, reconnectErr},
	}
	monitor := NewConnectionMonitorWithConfig(client, newTestLogger(), "testnet", Config{
		CheckInterval:  5 * time.Millisecond,
		ReconnectDelay: time.Millisecond,
		MaxReconnects:  2,
	})

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	assert.Eventually(t, func() bool {
		_, reconnects := client.counts()
		return reconnects >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorStartTwiceFails(t *testing.T) {
	monitor := NewConnectionMonitor(&fakeClient{}, newTestLogger(), "testnet")

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	err := monitor.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	monitor := NewConnectionMonitor(&fakeClient{}, newTestLogger(), "testnet")

	require.NoError(t, monitor.Start(context.Background()))
	monitor.Stop()
	monitor.Stop()
}
