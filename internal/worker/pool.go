package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/p-shah256/atsmatch/internal/config"
	"github.com/p-shah256/atsmatch/pkg/types"
)

// Publisher delivers analysis outcomes to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, outcome types.AnalysisOutcome) error
}

// acknowledger is the part of amqp.Delivery the pool needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// RoutingKey is the topic outcomes for job id are published under.
func RoutingKey(id string) string {
	return fmt.Sprintf("analysis.%s", id)
}

// DefaultJobTimeout bounds a single job, including the time it may keep
// running after shutdown has started.
const DefaultJobTimeout = 3 * time.Minute

type Pool struct {
	cfg        config.QueueConfig
	proc       *Processor
	jobTimeout time.Duration
}

type PoolOption func(*Pool)

// WithJobTimeout overrides DefaultJobTimeout. Non-positive values are ignored.
func WithJobTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.jobTimeout = d
		}
	}
}

func NewPool(cfg config.QueueConfig, proc *Processor, opts ...PoolOption) *Pool {
	p := &Pool{cfg: cfg, proc: proc, jobTimeout: DefaultJobTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes the request queue with n workers until ctx is cancelled or the
// broker connection drops.
func (p *Pool) Run(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", n)
	}

	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	if err := p.declare(conn); err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		slog.Info("worker started", "component", "worker", "worker_id", i+1, "queue", p.cfg.Queue)
		go func(id int) {
			defer wg.Done()
			if err := p.consume(ctx, conn, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("worker %d: %w", id, err))
				mu.Unlock()
			}
		}(i + 1)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (p *Pool) declare(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(
		p.cfg.Queue, // queue name
		true,        // durable
		false,       // auto-delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // kind
		true,           // durable
		false,          // auto-delete
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

func (p *Pool) consume(ctx context.Context, conn *amqp.Connection, id int) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		p.cfg.Queue,                    // queue name
		fmt.Sprintf("atsmatch-%d", id), // consumer tag
		false,                          // auto-ack
		false,                          // exclusive
		false,                          // no-local
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq messages: %w", err)
	}

	pub := &amqpPublisher{ch: ch, exchange: p.cfg.Exchange}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			p.handle(ctx, msg.Body, msg, pub)
		}
	}
}

// handle processes one delivery. The message is acked once its outcome is
// published, including failures. A failed publish requeues it.
// Cancelling ctx does not interrupt a job already taken off the queue.
func (p *Pool) handle(ctx context.Context, body []byte, ack acknowledger, pub Publisher) {
	log := slog.With("component", "worker", "operation", "handle")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.jobTimeout)
	defer cancel()

	outcome := p.proc.Process(ctx, body)
	if outcome.Status == types.StatusFailed {
		log.Warn("job failed", "job_id", outcome.ID, "error", outcome.Error)
	}

	if err := pub.Publish(ctx, outcome); err != nil {
		log.Error("failed to publish outcome", "job_id", outcome.ID, "error", err)
		if nackErr := ack.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", "job_id", outcome.ID, "error", nackErr)
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Error("failed to ack message", "job_id", outcome.ID, "error", err)
	}
}

type amqpPublisher struct {
	ch       *amqp.Channel
	exchange string
}

func (a *amqpPublisher) Publish(ctx context.Context, outcome types.AnalysisOutcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	return a.ch.Publish(
		a.exchange,
		RoutingKey(outcome.ID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    outcome.ID,
			Timestamp:    outcome.Timestamp,
			Body:         body,
		},
	)
}

// Submit publishes a job onto the request queue. Used by producers such as the CLI.
func Submit(ctx context.Context, cfg config.QueueConfig, job types.AnalysisJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	return ch.Publish("", cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Body:         body,
	})
}
