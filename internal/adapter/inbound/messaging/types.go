package messaging

import (
	"errors"
	"nextdynamic/internal/domain/valueobject"
	"time"
)

const (
	// DefaultJobProcessingTimeout is the default timeout for one transform request.
	DefaultJobProcessingTimeout = 30 * time.Second
	// DefaultSubject is the subject transform requests are sent to.
	DefaultSubject = "nextdynamic.transform"
	// DefaultQueueGroup is the queue group shared by worker instances.
	DefaultQueueGroup = "nextdynamic-workers"
	// natsConnectionTimeoutSeconds bounds the initial dial.
	natsConnectionTimeoutSeconds = 10
	// DrainCheckInterval is the interval for checking drain status.
	DrainCheckInterval = 100 * time.Millisecond
)

// subscription is the part of *nats.Subscription the consumer needs.
type subscription interface {
	Drain() error
	IsValid() bool
}

// connection is the part of *nats.Conn the consumer needs after Start.
type connection interface {
	Close()
}

// ConsumerConfig holds configuration for the message consumer.
type ConsumerConfig struct {
	Subject        string
	QueueGroup     string
	JobTimeout     time.Duration
	MaxMessageSize int
	Concurrency    int
	DefaultMode    valueobject.TargetMode
}

// validateConsumerConfig performs validation of consumer configuration.
func validateConsumerConfig(config ConsumerConfig) error {
	if config.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if config.QueueGroup == "" {
		return errors.New("queue group cannot be empty")
	}
	if config.JobTimeout < 0 {
		return errors.New("job timeout cannot be negative")
	}
	if config.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	if _, err := valueobject.NewTargetMode(config.DefaultMode.String()); err != nil {
		return err
	}
	return nil
}
