// Package amqp renders invoices through a RabbitMQ request/reply exchange with
// an external typesetting worker.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
)

const (
	DefaultQueue   = "ledger-billing.render"
	DefaultTimeout = 60 * time.Second
	maxBackoff     = 30 * time.Second
)

// channel is the subset of *amqp091.Channel used by Renderer.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Ensure interface conformance
var (
	_ render.Renderer = (*Renderer)(nil)
	_ channel         = (*amqp091.Channel)(nil)
)

type Options struct {
	Queue   string
	Timeout time.Duration
	// DialAttempts bounds connection retries; values below 1 mean a single try.
	DialAttempts int
	Logger       *applog.Logger
}

type Renderer struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel channel
	queue   string
	timeout time.Duration
	logger  *applog.Logger
}

// NewRenderer dials the broker and declares the durable request queue.
func NewRenderer(ctx context.Context, url string, opts Options) (*Renderer, error) {
	opts = withDefaults(opts)
	logger := opts.Logger.WithComponent(applog.ComponentRender)

	conn, err := dial(ctx, url, opts.DialAttempts, logger)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := newRenderer(ch, opts)
	r.conn = conn
	if err := r.setup(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func withDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Queue) == "" {
		opts.Queue = DefaultQueue
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DialAttempts < 1 {
		opts.DialAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	return opts
}

func newRenderer(ch channel, opts Options) *Renderer {
	opts = withDefaults(opts)
	return &Renderer{
		channel: ch,
		queue:   opts.Queue,
		timeout: opts.Timeout,
		logger:  opts.Logger.WithComponent(applog.ComponentRender),
	}
}

func dial(ctx context.Context, url string, attempts int, logger *applog.Logger) (*amqp091.Connection, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := exponentialBackoff(attempt - 1)
			logger.WarnContext(ctx, "Retrying broker connection", applog.FieldError, lastErr, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		conn, err := amqp091.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if !isConnectionError(err) {
			break
		}
	}
	return nil, fmt.Errorf("dial AMQP: %w", lastErr)
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "no such host", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (r *Renderer) setup() error {
	_, err := r.channel.QueueDeclare(
		r.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	return nil
}

// Render publishes the document and waits for the reply carrying the same
// correlation ID, up to the configured timeout or the context deadline.
func (r *Renderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	body, err := newRenderRequest(doc).toJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", render.ErrRenderFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	replyQueue, err := r.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: declare reply queue: %v", render.ErrRenderFailed, err)
	}
	replies, err := r.channel.Consume(
		replyQueue.Name, // queue
		"",              // consumer
		true,            // auto-ack
		true,            // exclusive
		false,           // no-local
		false,           // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: consume replies: %v", render.ErrRenderFailed, err)
	}

	correlationID := uuid.NewString()
	err = r.channel.PublishWithContext(ctx,
		"",      // default exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			CorrelationId: correlationID,
			ReplyTo:       replyQueue.Name,
			Timestamp:     time.Now(),
			Body:          body,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: publish: %v", render.ErrRenderFailed, err)
	}

	r.logger.InfoContext(ctx, "Render requested",
		applog.FieldCode, doc.Code,
		applog.FieldQueue, r.queue,
		applog.FieldCorrID, correlationID)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for reply: %v", render.ErrRenderFailed, ctx.Err())
		case delivery, ok := <-replies:
			if !ok {
				return nil, fmt.Errorf("%w: reply channel closed", render.ErrRenderFailed)
			}
			if delivery.CorrelationId != correlationID {
				r.logger.DebugContext(ctx, "Ignoring unrelated reply", applog.FieldCorrID, delivery.CorrelationId)
				continue
			}
			reply, err := replyFromJSON(delivery.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", render.ErrRenderFailed, err)
			}
			if !reply.OK {
				return nil, fmt.Errorf("%w: %s", render.ErrRenderFailed, reply.Error)
			}
			r.logger.InfoContext(ctx, "Render completed",
				applog.FieldCode, doc.Code,
				applog.FieldBytes, len(reply.Document))
			return reply.Document, nil
		}
	}
}

func (r *Renderer) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
