package backend

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/events"
	ekafka "fintrack/internal/events/kafka"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/ledger/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	app := &config.Config{
		LedgerBackend: "sqlite",
		SQLiteDSN:     sqlite.DefaultDSN,
		EventsBackend: "kafka",
		KafkaBrokers:  []string{"localhost:9092"},
		KafkaTopic:    "t",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Ledger != SQLiteLedger || cfg.Events != KafkaEvents || cfg.KafkaTopic != "t" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	app.LedgerBackend = "sheets"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("expected error for unknown ledger backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory no events", Config{Ledger: MemoryLedger, Events: NoEvents}, false},
		{"unknown ledger", Config{Ledger: "disk", Events: NoEvents}, true},
		{"unknown events", Config{Ledger: MemoryLedger, Events: "nats"}, true},
		{"sqlite without dsn", Config{Ledger: SQLiteLedger, Events: NoEvents}, true},
		{"amqp without url", Config{Ledger: MemoryLedger, Events: AMQPEvents, AMQPExchange: "x"}, true},
		{"kafka without topic", Config{Ledger: MemoryLedger, Events: KafkaEvents, KafkaBrokers: []string{"b"}}, true},
		{"kafka", Config{Ledger: MemoryLedger, Events: KafkaEvents, KafkaBrokers: []string{"b"}, KafkaTopic: "t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemory(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{Ledger: MemoryLedger, Events: NoEvents})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Stores.(memory.Factory); !ok {
		t.Errorf("Stores = %T, want memory.Factory", res.Stores)
	}
	if _, ok := res.Publisher.(events.Nop); !ok {
		t.Errorf("Publisher = %T, want events.Nop", res.Publisher)
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreateSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	res, err := NewFactory(nil).Create(ctx, Config{Ledger: SQLiteLedger, Events: NoEvents, SQLiteDSN: dsn})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Cleanup()

	if err := res.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	store, err := res.Stores.Open(ctx, "session-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e := core.IncomeEntry{Date: core.NewDate(2024, 1, 1), Source: "Salary", Amount: core.Money{Cents: 100}}
	if err := store.AppendIncome(ctx, e); err != nil {
		t.Fatalf("AppendIncome: %v", err)
	}
}

func TestCreateKafkaPublisher(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{
		Ledger:       MemoryLedger,
		Events:       KafkaEvents,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "fintrack.entries",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Publisher.(*ekafka.Publisher); !ok {
		t.Errorf("Publisher = %T, want *kafka.Publisher", res.Publisher)
	}
}
