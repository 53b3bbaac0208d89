package mq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestHeadersToMessageAcceptsStringHeaders(t *testing.T) {
	d := amqp.Delivery{
		Headers: amqp.Table{"trace-id": "abc-123", "module": "billing"},
		Body:    []byte("payload"),
	}

	msg, err := headersToMessage(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Headers["trace-id"] != "abc-123" || msg.Headers["module"] != "billing" {
		t.Errorf("expected headers carried through, got %#v", msg.Headers)
	}
	if string(msg.Body) != "payload" {
		t.Errorf("expected body carried through, got %q", msg.Body)
	}
}

func TestHeadersToMessageRejectsNonStringHeader(t *testing.T) {
	d := amqp.Delivery{
		Headers: amqp.Table{"count": int32(5)},
		Body:    []byte("payload"),
	}

	_, err := headersToMessage(d)
	if err == nil {
		t.Fatal("expected an error for a non-string header value")
	}
}
