package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// DispatchTopic carries on-demand dispatch requests.
const DispatchTopic = "mailing_dispatch"

// DispatchJob asks a worker to dispatch one mailing.
type DispatchJob struct {
	MailingID   int `json:"mailing_id"`
	RequestedBy int `json:"requested_by"`
}

type Handler func(ctx context.Context, job DispatchJob) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, job DispatchJob) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

var ErrNoSubscribers = errors.New("no subscribers")

// InMemoryQueue delivers each job to every handler of the topic on its own
// goroutine. A handler error is logged and the job is dropped.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	closed   bool
	log      zerolog.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]Handler),
		log:      log.With().Str("component", "queue").Logger(),
	}
}

// Publish sends a job to all subscribers
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, job DispatchJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("queue closed")
	}
	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("%w for topic %s", ErrNoSubscribers, topic)
	}

	// the job outlives the publishing request
	jobCtx := context.WithoutCancel(ctx)
	for _, h := range handlers {
		q.wg.Add(1)
		go q.process(jobCtx, topic, h, job)
	}
	return nil
}

func (q *InMemoryQueue) process(ctx context.Context, topic string, h Handler, job DispatchJob) {
	defer q.wg.Done()
	if err := h(ctx, job); err != nil {
		q.log.Error().Err(err).Str("topic", topic).Int("mailing_id", job.MailingID).Msg("job failed")
		return
	}
	q.log.Debug().Str("topic", topic).Int("mailing_id", job.MailingID).Msg("job processed")
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close stops accepting jobs and waits for in-flight handlers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
