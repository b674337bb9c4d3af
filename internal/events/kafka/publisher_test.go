package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"fintrack/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	e := events.EntryLogged{
		Kind:        events.KindExpense,
		SessionID:   "abc",
		Date:        "2024-05-01",
		Label:       "Food",
		AmountCents: 1299,
		OccurredAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}

	m := w.msgs[0]
	if string(m.Key) != "abc" {
		t.Errorf("key = %q, want abc", m.Key)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != "expense" {
		t.Errorf("headers = %+v", m.Headers)
	}
	got, err := events.EntryLoggedFromJSON(m.Value)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != "Food" || got.AmountCents != 1299 {
		t.Errorf("decoded %+v", got)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &Publisher{writer: &fakeWriter{err: boom}}

	if err := p.Publish(context.Background(), events.EntryLogged{}); !errors.Is(err, boom) {
		t.Fatalf("Publish = %v, want wrapped %v", err, boom)
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	if err := (&Publisher{writer: w}).Close(); err != nil {
		t.Fatal(err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
}
