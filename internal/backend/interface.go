package backend

import (
	"context"

	"fintrack/internal/events"
	"fintrack/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether the storage backend is usable.
type PingFunc func(ctx context.Context) error

// Result holds what the application needs from the configured backends.
type Result struct {
	Stores    ledger.StoreFactory
	Publisher events.Publisher
	Ping      PingFunc
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Ledger LedgerType
	Events EventsType

	// SQLite specific
	SQLiteDSN string

	// AMQP specific
	AMQPURL             string
	AMQPExchange        string
	AMQPRoutingKey      string
	AMQPConnectAttempts int

	// Kafka specific
	KafkaBrokers []string
	KafkaTopic   string
}

// LedgerType selects where session ledgers live.
type LedgerType string

const (
	MemoryLedger LedgerType = "memory"
	SQLiteLedger LedgerType = "sqlite"
)

// String implements fmt.Stringer
func (t LedgerType) String() string {
	return string(t)
}

// IsValid returns true if the ledger type is valid
func (t LedgerType) IsValid() bool {
	switch t {
	case MemoryLedger, SQLiteLedger:
		return true
	default:
		return false
	}
}

// EventsType selects the event publisher.
type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (t EventsType) String() string {
	return string(t)
}

func (t EventsType) IsValid() bool {
	switch t {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	default:
		return false
	}
}
