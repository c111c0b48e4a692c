// Package amqpsink publishes run progress and results to a RabbitMQ topic
// exchange as JSON envelopes.
package amqpsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"roomcast/model"
	"roomcast/pkg/logx"
	"roomcast/progress"
)

const (
	TypeProgress = "roomcast.progress.v1"
	TypeResult   = "roomcast.result.v1"

	producer = "roomcast"
)

type Config struct {
	URL           string
	Exchange      string
	RetryAttempts int
	RetryDelay    time.Duration
	QueueSize     int
}

type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope stamps a fresh ID and time. runID becomes the correlation ID so
// consumers can group a run's messages.
func NewEnvelope(typ, runID string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:            uuid.NewString(),
			CorrelationID: runID,
			Producer:      producer,
			Time:          time.Now().UTC(),
			Type:          typ,
		},
		Data: data,
	}
}

// RoutingKey is the envelope type, so consumers can bind "roomcast.#".
func (e Envelope) RoutingKey() string { return e.Meta.Type }

type ProgressData struct {
	RunID string `json:"run_id"`
	progress.Update
}

type ResultData struct {
	RunID  string `json:"run_id"`
	Module string `json:"module"`
	model.Response
}

var ErrClosed = errors.New("amqp sink closed")

// Sink owns one connection and a single publishing worker. Progress reports
// never block the run: when the queue is full the update is dropped.
type Sink struct {
	conn     *amqp091.Connection
	exchange string
	log      logx.Logger

	queue chan Envelope
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Dial connects, declares the topic exchange and starts the worker.
func Dial(ctx context.Context, cfg Config, log logx.Logger) (*Sink, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = "roomcast"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	conn, err := DialWithRetry(ctx, cfg.URL, cfg.RetryAttempts, cfg.RetryDelay, log)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}

	s := &Sink{
		conn:     conn,
		exchange: cfg.Exchange,
		log:      log.With(logx.String("comp", "amqpsink")),
		queue:    make(chan Envelope, cfg.QueueSize),
	}
	s.wg.Add(1)
	go s.worker()
	return s, nil
}

// DialWithRetry retries with exponential backoff and jitter, capped at one minute.
func DialWithRetry(ctx context.Context, url string, attempts int, base time.Duration, log logx.Logger) (*amqp091.Connection, error) {
	const maxDelay = time.Minute
	if attempts <= 0 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Second
	}

	delay := base
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if i == attempts {
			break
		}
		wait := jittered(delay, maxDelay)
		log.Warn("amqp dial failed; retrying",
			logx.Int("attempt", i),
			logx.Duration("retry_in", wait),
			logx.Err(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if delay*2 < maxDelay {
			delay *= 2
		}
	}
	return nil, fmt.Errorf("amqp dial after %d attempts: %w", attempts, lastErr)
}

func jittered(base, limit time.Duration) time.Duration {
	delta := (rand.Float64()*2 - 1) * 0.25
	wait := time.Duration(float64(base) * (1 + delta))
	if wait <= 0 {
		wait = base
	}
	if wait > limit {
		wait = limit
	}
	return wait
}

// ForRun returns a reporter that tags updates with runID.
func (s *Sink) ForRun(runID string) progress.Reporter {
	return progress.Func(func(u progress.Update) {
		s.enqueue(NewEnvelope(TypeProgress, runID, ProgressData{RunID: runID, Update: u}))
	})
}

// PublishResult publishes the final response synchronously.
func (s *Sink) PublishResult(ctx context.Context, runID, module string, resp model.Response) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.publish(ctx, NewEnvelope(TypeResult, runID, ResultData{RunID: runID, Module: module, Response: resp}))
}

func (s *Sink) enqueue(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- env:
	default:
		s.log.Debug("progress dropped; publish queue full", logx.String("run_id", env.Meta.CorrelationID))
	}
}

func (s *Sink) worker() {
	defer s.wg.Done()
	for env := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.publish(ctx, env); err != nil {
			s.log.Warn("publish failed", logx.String("type", env.Meta.Type), logx.Err(err))
		}
		cancel()
	}
}

func (s *Sink) publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	ch, err := s.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.PublishWithContext(ctx, s.exchange, env.RoutingKey(), false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Type:          env.Meta.Type,
		AppId:         producer,
		Timestamp:     env.Meta.Time,
		Body:          body,
	})
}

// Close drains queued progress and closes the connection.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return s.conn.Close()
}
