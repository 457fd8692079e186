package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nextdynamic/internal/application/common/logging"
	"nextdynamic/internal/config"
	"nextdynamic/internal/domain/messaging"
	"nextdynamic/internal/port/inbound"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var _ inbound.Consumer = (*NATSConsumer)(nil)

// NATSConsumer answers transform requests published on a NATS subject. It
// joins a queue group so that requests are spread across worker instances.
type NATSConsumer struct {
	config     ConsumerConfig
	natsConfig config.NATSConfig
	service    inbound.TransformService
	logger     logging.ApplicationLogger

	mu      sync.RWMutex
	conn    connection
	sub     subscription
	running bool
	respond func(msg *nats.Msg, data []byte) error
	stats   inbound.ConsumerStats
	health  inbound.ConsumerHealthStatus

	slots    chan struct{}
	inflight sync.WaitGroup
}

// NewNATSConsumer creates a new NATS consumer with validation.
func NewNATSConsumer(
	cfg ConsumerConfig,
	natsConfig config.NATSConfig,
	service inbound.TransformService,
	logger logging.ApplicationLogger,
) (*NATSConsumer, error) {
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = DefaultJobProcessingTimeout
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = messaging.DefaultMaxMessageSize
	}
	if err := validateConsumerConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if service == nil {
		return nil, errors.New("transform service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &NATSConsumer{
		config:     cfg,
		natsConfig: natsConfig,
		service:    service,
		logger:     logger.WithComponent("nats-consumer"),
		stats:      inbound.ConsumerStats{ActiveSince: time.Now()},
		health: inbound.ConsumerHealthStatus{
			QueueGroup: cfg.QueueGroup,
			Subject:    cfg.Subject,
		},
		slots:   make(chan struct{}, cfg.Concurrency),
		respond: (*nats.Msg).Respond,
	}, nil
}

// Start connects to NATS and subscribes to the request subject.
func (n *NATSConsumer) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("consumer already running for subject %s", n.config.Subject)
	}

	start := time.Now()
	conn, err := nats.Connect(n.natsConfig.URL, n.connectionOptions(ctx)...)
	if err != nil {
		n.logger.LogNATSConnectionEvent(ctx, logging.NATSConnectionEvent{
			Type:      logging.NATSConnectionFailed,
			ServerURL: n.natsConfig.URL,
			Duration:  time.Since(start),
			Error:     err,
		})
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.logger.LogNATSConnectionEvent(ctx, logging.NATSConnectionEvent{
		Type:      logging.NATSConnected,
		ServerURL: conn.ConnectedUrl(),
		Duration:  time.Since(start),
		Success:   true,
	})

	sub, err := conn.QueueSubscribe(n.config.Subject, n.config.QueueGroup, n.onMessage)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", n.config.Subject, err)
	}

	n.conn = conn
	n.sub = sub
	n.running = true
	n.health.IsRunning = true
	n.health.IsConnected = true
	n.stats.ActiveSince = time.Now()
	return nil
}

func (n *NATSConsumer) connectionOptions(ctx context.Context) []nats.Option {
	return []nats.Option{
		nats.Name("nextdynamic-worker"),
		nats.MaxReconnects(n.natsConfig.MaxReconnects),
		nats.ReconnectWait(n.natsConfig.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds * time.Second),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			n.setConnected(true)
			n.logger.LogNATSConnectionEvent(ctx, logging.NATSConnectionEvent{
				Type:         logging.NATSConnected,
				ServerURL:    conn.ConnectedUrl(),
				AttemptCount: int(conn.Stats().Reconnects),
				Success:      true,
			})
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.setConnected(false)
			event := logging.NATSConnectionEvent{
				Type:      logging.NATSDisconnected,
				ServerURL: n.natsConfig.URL,
				Reason:    "connection lost",
			}
			if err != nil {
				event.Reason = err.Error()
			}
			n.logger.LogNATSConnectionEvent(ctx, event)
		}),
	}
}

// Stop drains the subscription, waits for in-flight requests and closes the
// connection. Requests already buffered when Stop is called are still
// answered.
func (n *NATSConsumer) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	sub, conn := n.sub, n.conn
	n.running = false
	n.health.IsRunning = false
	n.mu.Unlock()

	var stopErr error
	if err := sub.Drain(); err != nil {
		stopErr = fmt.Errorf("failed to drain subscription: %w", err)
	}

	// No message reaches onMessage once the drain finished, so the wait
	// below cannot race with inflight.Add.
	if err := waitForDrain(ctx, sub); err != nil {
		stopErr = errors.Join(stopErr, err)
	} else {
		done := make(chan struct{})
		go func() {
			n.inflight.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			stopErr = errors.Join(stopErr, ctx.Err())
		}
	}

	conn.Close()
	n.setConnected(false)
	return stopErr
}

// waitForDrain blocks until the subscription delivered its pending messages
// and was removed.
func waitForDrain(ctx context.Context, sub subscription) error {
	ticker := time.NewTicker(DrainCheckInterval)
	defer ticker.Stop()

	for sub.IsValid() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("subscription drain did not finish: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

// Health returns the current health status of the consumer.
func (n *NATSConsumer) Health() inbound.ConsumerHealthStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.health
}

// GetStats returns consumer statistics.
func (n *NATSConsumer) GetStats() inbound.ConsumerStats {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.stats
}

// QueueGroup returns the consumer's queue group.
func (n *NATSConsumer) QueueGroup() string {
	if n == nil {
		return ""
	}
	return n.config.QueueGroup
}

// Subject returns the consumer's subject.
func (n *NATSConsumer) Subject() string {
	if n == nil {
		return ""
	}
	return n.config.Subject
}

// onMessage runs the request on its own goroutine once a slot is free.
func (n *NATSConsumer) onMessage(msg *nats.Msg) {
	n.slots <- struct{}{}
	n.inflight.Add(1)
	go func() {
		defer func() {
			<-n.slots
			n.inflight.Done()
		}()

		reply := n.handleRequest(context.Background(), msg.Data)
		if msg.Reply == "" {
			return
		}
		data, err := json.Marshal(reply)
		if err != nil {
			n.updateHealthOnError(fmt.Sprintf("failed to encode reply: %v", err))
			return
		}
		if err := n.respond(msg, data); err != nil {
			n.updateHealthOnError(fmt.Sprintf("failed to send reply: %v", err))
		}
	}()
}

// handleRequest decodes, runs and answers one transform request.
func (n *NATSConsumer) handleRequest(ctx context.Context, data []byte) messaging.TransformReply {
	start := time.Now()
	event := logging.NATSConsumeEvent{
		Subject:     n.config.Subject,
		QueueGroup:  n.config.QueueGroup,
		MessageSize: int64(len(data)),
	}

	req, err := messaging.ParseTransformRequest(data, n.config.MaxMessageSize)
	if err != nil {
		event.RequestID = req.RequestID
		event.Rejected = true
		event.Error = err
		n.finish(ctx, event, start, false)
		return messaging.NewErrorReply(req.RequestID, err)
	}

	ctx = logging.WithRequestID(ctx, req.RequestID)
	if req.CorrelationID != "" {
		ctx = logging.WithCorrelationID(ctx, req.CorrelationID)
	}
	event.RequestID = req.RequestID
	event.Filename = req.Filename

	mode, err := req.TargetMode(n.config.DefaultMode)
	if err != nil {
		event.Rejected = true
		event.Error = err
		n.finish(ctx, event, start, false)
		return messaging.NewErrorReply(req.RequestID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.JobTimeout)
	defer cancel()

	result, err := n.service.TransformSource(ctx, req.Filename, []byte(req.Source), mode)
	if err != nil {
		event.Error = err
		n.finish(ctx, event, start, false)
		reply := messaging.NewErrorReply(req.RequestID, err)
		reply.Duration = time.Since(start)
		return reply
	}

	event.Success = true
	n.finish(ctx, event, start, true)
	return messaging.TransformReply{
		RequestID: req.RequestID,
		Output:    string(result.Output),
		Changed:   result.Changed,
		CallSites: result.CallSites,
		Duration:  time.Since(start),
	}
}

func (n *NATSConsumer) finish(ctx context.Context, event logging.NATSConsumeEvent, start time.Time, success bool) {
	event.ProcessingTime = time.Since(start)
	n.logger.LogNATSConsumeEvent(ctx, event)
	n.updateStats(success, event.Rejected, event.MessageSize, event.ProcessingTime)
	if event.Error != nil {
		n.updateHealthOnError(event.Error.Error())
	}
}

func (n *NATSConsumer) setConnected(connected bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.health.IsConnected = connected
}

// updateHealthOnError updates health status when an error occurs.
func (n *NATSConsumer) updateHealthOnError(errorMsg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.health.ErrorCount++
	n.health.LastError = errorMsg
}

// updateStats updates consumer statistics in a thread-safe manner.
func (n *NATSConsumer) updateStats(success, rejected bool, size int64, processTime time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	n.stats.MessagesReceived++
	n.stats.BytesReceived += size
	n.stats.LastMessageTime = now

	switch {
	case success:
		n.stats.MessagesProcessed++
		n.health.MessagesHandled++
		n.health.LastMessageTime = now
		// running mean over processed messages
		n.stats.AverageProcessing += (processTime - n.stats.AverageProcessing) / time.Duration(n.stats.MessagesProcessed)
	case rejected:
		n.stats.MessagesRejected++
	default:
		n.stats.MessagesFailed++
	}
}
