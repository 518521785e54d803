package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/customers"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
)

// fakeChannel answers every publish through the reply function.
type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []amqp091.Publishing
	replies    chan amqp091.Delivery
	reply      func(msg amqp091.Publishing) []amqp091.Delivery
	publishErr error
}

func newFakeChannel(reply func(amqp091.Publishing) []amqp091.Delivery) *fakeChannel {
	return &fakeChannel{replies: make(chan amqp091.Delivery, 8), reply: reply}
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("amq.gen-%d", len(f.declared))
	}
	f.declared = append(f.declared, name)
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.replies, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	f.published = append(f.published, msg)
	f.mu.Unlock()
	for _, d := range f.reply(msg) {
		f.replies <- d
	}
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func replyBody(t *testing.T, reply renderReply) []byte {
	t.Helper()
	body, err := json.Marshal(reply)
	require.NoError(t, err)
	return body
}

func testDocument() render.Document {
	return render.Document{
		Code:     "7",
		Date:     core.NewDate(2024, 2, 1),
		Currency: "EUR",
		Customer: customers.Normalize(customers.Customer{Name: "Acme", Address: "1 Road"}),
		Lines: core.InvoiceLines{
			Fees: []core.InvoiceLine{{
				Note:     "consulting",
				Amount:   "7200s",
				Rate:     decimal.NewFromInt(50),
				HasRate:  true,
				Hours:    decimal.NewFromInt(2),
				HasHours: true,
			}},
		},
		Totals: map[string]decimal.Decimal{"EUR": decimal.NewFromInt(100)},
	}
}

func TestRenderer_Render(t *testing.T) {
	ch := newFakeChannel(nil)
	ch.reply = func(msg amqp091.Publishing) []amqp091.Delivery {
		return []amqp091.Delivery{
			{CorrelationId: "someone-else", Body: replyBody(t, renderReply{OK: true, Document: []byte("wrong")})},
			{CorrelationId: msg.CorrelationId, Body: replyBody(t, renderReply{OK: true, Document: []byte("%PDF")})},
		}
	}
	r := newRenderer(ch, Options{Queue: "render", Logger: applog.Discard()})
	require.NoError(t, r.setup())

	out, err := r.Render(context.Background(), testDocument())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), out)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.NotEmpty(t, msg.CorrelationId)
	assert.Equal(t, "amq.gen-1", msg.ReplyTo)
	assert.Equal(t, "application/json", msg.ContentType)

	var req renderRequest
	require.NoError(t, json.Unmarshal(msg.Body, &req))
	assert.Equal(t, "7", req.Code)
	assert.Equal(t, "2024-02-01", req.Date)
	assert.Equal(t, "Acme", req.Customer.Name)
	require.Len(t, req.Fees, 1)
	assert.Equal(t, "50", req.Fees[0].Rate)
	assert.Equal(t, "2.00", req.Fees[0].Hours)
	assert.Equal(t, "100.00", req.Fees[0].Total)
	assert.Empty(t, req.Items)
	assert.Equal(t, map[string]string{"EUR": "100.00"}, req.Totals)
}

func TestRenderer_WorkerError(t *testing.T) {
	ch := newFakeChannel(func(msg amqp091.Publishing) []amqp091.Delivery {
		return []amqp091.Delivery{{CorrelationId: msg.CorrelationId, Body: replyBody(t, renderReply{Error: "latex crashed"})}}
	})
	r := newRenderer(ch, Options{Logger: applog.Discard()})

	_, err := r.Render(context.Background(), testDocument())
	assert.ErrorIs(t, err, render.ErrRenderFailed)
	assert.Contains(t, err.Error(), "latex crashed")
}

func TestRenderer_MalformedReply(t *testing.T) {
	ch := newFakeChannel(func(msg amqp091.Publishing) []amqp091.Delivery {
		return []amqp091.Delivery{{CorrelationId: msg.CorrelationId, Body: []byte("not json")}}
	})
	r := newRenderer(ch, Options{Logger: applog.Discard()})

	_, err := r.Render(context.Background(), testDocument())
	assert.ErrorIs(t, err, render.ErrRenderFailed)
}

func TestRenderer_Timeout(t *testing.T) {
	ch := newFakeChannel(func(amqp091.Publishing) []amqp091.Delivery { return nil })
	r := newRenderer(ch, Options{Timeout: 20 * time.Millisecond, Logger: applog.Discard()})

	_, err := r.Render(context.Background(), testDocument())
	assert.ErrorIs(t, err, render.ErrRenderFailed)
	assert.Contains(t, err.Error(), "deadline")
}

func TestRenderer_PublishError(t *testing.T) {
	ch := newFakeChannel(nil)
	ch.publishErr = errors.New("channel closed")
	r := newRenderer(ch, Options{Logger: applog.Discard()})

	_, err := r.Render(context.Background(), testDocument())
	assert.ErrorIs(t, err, render.ErrRenderFailed)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.True(t, isConnectionError(amqp091.ErrClosed))
	assert.False(t, isConnectionError(errors.New("Exception (403) Reason: \"username or password not allowed\"")))
}
