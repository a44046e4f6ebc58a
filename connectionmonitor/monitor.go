// Package connectionmonitor keeps a chain's RPC connection alive in the
// background, reconnecting with bounded retries when health checks fail.
package connectionmonitor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultCheckInterval  = 30 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultMaxReconnects  = 3
)

// ConnectionMonitor represents connection state monitoring interface.
type ConnectionMonitor interface {
	// Start starts connection monitoring.
	Start(ctx context.Context) error
	// Stop stops connection monitoring.
	Stop()
}

// BlockchainClient represents blockchain client interface.
type BlockchainClient interface {
	// CheckConnection checks if connection is alive.
	CheckConnection(ctx context.Context) error
	// Reconnect attempts to reconnect to blockchain node.
	Reconnect(ctx context.Context) error
}

// Config tunes a monitor instance. Zero values fall back to defaults.
type Config struct {
	CheckInterval  time.Duration
	ReconnectDelay time.Duration
	MaxReconnects  int
}

func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.MaxReconnects <= 0 {
		c.MaxReconnects = defaultMaxReconnects
	}
	return c
}

type connectionMonitor struct {
	client    BlockchainClient
	logger    *logrus.Logger
	chainName string
	config    Config

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewConnectionMonitor creates a monitor with default check and reconnect
// timing.
//
// Parameters:
// - client: the blockchain client to monitor.
// - logger: the logger for logging purposes.
// - chainName: the name of the blockchain chain.
//
// Returns:
// - ConnectionMonitor: the new connection monitor instance.
func NewConnectionMonitor(
	client BlockchainClient,
	logger *logrus.Logger,
	chainName string,
) ConnectionMonitor {
	return NewConnectionMonitorWithConfig(client, logger, chainName, Config{})
}

// NewConnectionMonitorWithConfig creates a monitor with explicit timing,
// used by tests and by chains with unusually slow endpoints.
func NewConnectionMonitorWithConfig(
	client BlockchainClient,
	logger *logrus.Logger,
	chainName string,
	config Config,
) ConnectionMonitor {
	return &connectionMonitor{
		client:    client,
		logger:    logger,
		chainName: chainName,
		config:    config.withDefaults(),
		stopChan:  make(chan struct{}),
	}
}

// Start starts connection monitoring.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the connection monitor is already running.
func (m *connectionMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.Errorf("connection monitor is already running for chain %s", m.chainName)
	}
	m.running = true

	go m.loop(ctx)
	return nil
}

// Stop stops connection monitoring.
func (m *connectionMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopChan)
	m.running = false
}

func (m *connectionMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped due to context cancellation")
			return

		case <-m.stopChan:
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped")
			return

		case <-ticker.C:
			if err := m.checkOnce(ctx); err != nil {
				m.logger.WithFields(logrus.Fields{
					"chain": m.chainName,
					"error": err,
				}).Error("Failed to check or reconnect")
			}
		}
	}
}

// checkOnce pings the client and runs the reconnect sequence when the ping
// fails.
func (m *connectionMonitor) checkOnce(ctx context.Context) error {
	err := m.client.CheckConnection(ctx)
	if err == nil {
		m.logger.WithField("chain", m.chainName).Debug("Ping successful")
		return nil
	}

	m.logger.WithFields(logrus.Fields{
		"chain": m.chainName,
		"error": err,
	}).Warn("Connection check failed, attempting to reconnect")

	return m.reconnect(ctx)
}

// reconnect retries Reconnect up to MaxReconnects times with a fixed delay
// between attempts.
func (m *connectionMonitor) reconnect(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= m.config.MaxReconnects; attempt++ {
		if err := m.client.Reconnect(ctx); err != nil {
			lastErr = err
			m.logger.WithFields(logrus.Fields{
				"chain":   m.chainName,
				"attempt": attempt,
				"error":   err,
			}).Error("Reconnection attempt failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.config.ReconnectDelay):
				continue
			}
		}

		m.logger.WithFields(logrus.Fields{
			"chain":   m.chainName,
			"attempt": attempt,
		}).Info("Client successfully reconnected")
		return nil
	}

	return errors.Wrapf(lastErr, "failed to reconnect to chain %s", m.chainName)
}
