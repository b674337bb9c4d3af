// Package backend wires the ledger storage and event publisher selected
// by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/events"
	eamqp "fintrack/internal/events/amqp"
	ekafka "fintrack/internal/events/kafka"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/ledger/sqlite"
	"fintrack/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var closers []func() error

	switch config.Ledger {
	case SQLiteLedger:
		db, err := sqlite.Open(config.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite ledger: %w", err)
		}
		res.Stores = db
		res.Ping = db.Ping
		closers = append(closers, db.Close)
		f.logger.Info("Initialized SQLite ledger", "dsn", config.SQLiteDSN)
	default:
		res.Stores = memory.Factory{}
		res.Ping = func(context.Context) error { return nil }
		f.logger.Info("Initialized memory ledger")
	}

	res.Publisher = f.createPublisher(ctx, config)
	closers = append(closers, res.Publisher.Close)

	res.Cleanup = func() error {
		var errs []error
		// Publisher first: it was created last.
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

// createPublisher never fails: an unreachable broker degrades to a Nop
// publisher since events are best effort.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) events.Publisher {
	switch config.Events {
	case AMQPEvents:
		p, err := eamqp.NewPublisher(ctx, eamqp.Config{
			URL:             config.AMQPURL,
			Exchange:        config.AMQPExchange,
			RoutingKey:      config.AMQPRoutingKey,
			ConnectAttempts: config.AMQPConnectAttempts,
		}, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP publisher, continuing without events", log.FieldError, err)
			return events.Nop{}
		}
		f.logger.Info("Initialized AMQP publisher",
			"exchange", config.AMQPExchange,
			"routing_key", config.AMQPRoutingKey)
		return p
	case KafkaEvents:
		f.logger.Info("Initialized Kafka publisher",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic)
		return ekafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)
	default:
		return events.Nop{}
	}
}
