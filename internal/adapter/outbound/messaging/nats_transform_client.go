// Package messaging sends transform requests to workers over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/config"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/messaging"
	"nextdynamic/internal/port/outbound"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// NATS connection timeout.
	natsConnectionTimeoutSeconds = 5

	// DefaultRequestTimeout bounds a request whose context has no deadline.
	DefaultRequestTimeout = 30 * time.Second
)

var _ outbound.TransformClient = (*NATSTransformClient)(nil)

// ConnectionHealthStatus represents the health status of NATS connection.
type ConnectionHealthStatus struct {
	Connected    bool          `json:"connected"`
	LastError    string        `json:"last_error,omitempty"`
	Uptime       time.Duration `json:"uptime"`
	Reconnects   int           `json:"reconnects"`
	LastPingTime time.Time     `json:"last_ping_time"`
}

// RequestMetrics tracks sent requests.
type RequestMetrics struct {
	SentCount      int64         `json:"sent_count"`
	FailedCount    int64         `json:"failed_count"`
	AverageLatency time.Duration `json:"average_latency"`
	LastSentTime   time.Time     `json:"last_sent_time"`
}

// NATSTransformClient sends transform requests to the worker queue group and
// waits for the reply.
type NATSTransformClient struct {
	config         config.NATSConfig
	subject        string
	requestTimeout time.Duration

	mutex          sync.RWMutex
	conn           *nats.Conn
	health         ConnectionHealthStatus
	metrics        RequestMetrics
	connectedAt    time.Time
	reconnectCount int
}

// NewNATSTransformClient creates a client for the given subject. Call Connect
// before sending requests.
func NewNATSTransformClient(cfg config.NATSConfig, subject string) (*NATSTransformClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") && !strings.HasPrefix(cfg.URL, "tls://") {
		return nil, errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < -1 {
		return nil, errors.New("max reconnects cannot be less than -1")
	}
	if cfg.ReconnectWait < 0 {
		return nil, errors.New("reconnect wait cannot be negative")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("subject cannot be empty")
	}

	return &NATSTransformClient{
		config:         cfg,
		subject:        subject,
		requestTimeout: DefaultRequestTimeout,
	}, nil
}

// SetRequestTimeout changes the timeout used for requests without a deadline.
func (c *NATSTransformClient) SetRequestTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.requestTimeout = timeout
	}
}

// Connect establishes connection to NATS server.
func (c *NATSTransformClient) Connect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := []nats.Option{
		nats.Name("nextdynamic-client"),
		nats.MaxReconnects(c.config.MaxReconnects),
		nats.ReconnectWait(c.config.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds * time.Second),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.mutex.Lock()
			c.reconnectCount++
			c.mutex.Unlock()
			c.updateConnectionHealth(true, nil)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, _ error) {
			c.updateConnectionHealth(false, errors.New("connection lost"))
		}),
	}

	conn, err := nats.Connect(c.config.URL, opts...)
	if err != nil {
		c.setHealthLocked(false, err)
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.conn = conn
	c.connectedAt = time.Now()
	c.setHealthLocked(true, nil)

	slogger.Debug(ctx, "Connected to NATS", slogger.Fields{
		"server_url": c.config.URL,
		"subject":    c.subject,
	})
	return nil
}

// Close closes the connection.
func (c *NATSTransformClient) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.setHealthLocked(false, nil)
}

// Transform sends req and waits for the worker's reply.
func (c *NATSTransformClient) Transform(
	ctx context.Context,
	req messaging.TransformRequest,
) (messaging.TransformReply, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		c.updateMetrics(false, time.Since(start))
		return messaging.TransformReply{}, err
	}
	if err := req.Validate(); err != nil {
		return messaging.TransformReply{}, err
	}

	c.mutex.RLock()
	conn := c.conn
	c.mutex.RUnlock()
	if conn == nil {
		c.updateMetrics(false, time.Since(start))
		return messaging.TransformReply{}, errors.New("transform request failed: not connected to NATS")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return messaging.TransformReply{}, fmt.Errorf("failed to encode transform request: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	msg, err := conn.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		c.updateMetrics(false, time.Since(start))
		return messaging.TransformReply{}, fmt.Errorf("transform request failed: %w", err)
	}

	var reply messaging.TransformReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		c.updateMetrics(false, time.Since(start))
		return messaging.TransformReply{}, fmt.Errorf("failed to decode transform reply: %w", err)
	}
	c.updateMetrics(true, time.Since(start))

	if reply.Error != "" {
		return reply, fmt.Errorf("%w: %s", domain.ErrRemoteTransform, reply.Error)
	}
	return reply, nil
}

// GetConnectionHealth returns the current connection health status.
func (c *NATSTransformClient) GetConnectionHealth() ConnectionHealthStatus {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	health := c.health
	health.Reconnects = c.reconnectCount
	if health.Connected && !c.connectedAt.IsZero() {
		health.Uptime = time.Since(c.connectedAt)
	}
	return health
}

// GetRequestMetrics returns request metrics.
func (c *NATSTransformClient) GetRequestMetrics() RequestMetrics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.metrics
}

func (c *NATSTransformClient) updateConnectionHealth(connected bool, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.setHealthLocked(connected, err)
}

func (c *NATSTransformClient) setHealthLocked(connected bool, err error) {
	c.health.Connected = connected
	c.health.LastPingTime = time.Now()
	if err != nil {
		c.health.LastError = err.Error()
	}
}

// updateMetrics updates request metrics.
func (c *NATSTransformClient) updateMetrics(success bool, latency time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !success {
		c.metrics.FailedCount++
		return
	}

	c.metrics.SentCount++
	c.metrics.LastSentTime = time.Now()
	// Exponential moving average with alpha = 0.1
	if c.metrics.AverageLatency == 0 {
		c.metrics.AverageLatency = latency
	} else {
		c.metrics.AverageLatency = time.Duration(
			0.9*float64(c.metrics.AverageLatency) + 0.1*float64(latency),
		)
	}
}
