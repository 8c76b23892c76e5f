package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// AMQPQueue publishes jobs to a durable RabbitMQ queue named after the topic.
// Deliveries are acknowledged after the handler returns, failed or not.
type AMQPQueue struct {
	conn *amqp.Connection
	mu   sync.Mutex // guards ch for publishing
	ch   *amqp.Channel
	log  zerolog.Logger

	declared map[string]bool
	wg       sync.WaitGroup
}

func NewAMQPQueue(url string, log zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return &AMQPQueue{
		conn:     conn,
		ch:       ch,
		log:      log.With().Str("component", "amqp").Logger(),
		declared: map[string]bool{},
	}, nil
}

func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

func (q *AMQPQueue) Publish(ctx context.Context, topic string, job DispatchJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.declared[topic] {
		if _, err := declare(q.ch, topic); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", topic, err)
		}
		q.declared[topic] = true
	}

	err = q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a consumer on its own channel. Deliveries are handled one
// at a time in arrival order.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := declare(ch, topic); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}
	msgs, err := ch.Consume(topic, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer ch.Close()
		for d := range msgs {
			q.handle(topic, d, handler)
		}
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler Handler) {
	defer func() {
		if err := d.Ack(false); err != nil {
			q.log.Error().Err(err).Msg("ack failed")
		}
	}()

	job, err := decodeJob(d.Body)
	if err != nil {
		q.log.Error().Err(err).Str("topic", topic).Msg("invalid job")
		return
	}
	if err := handler(context.Background(), job); err != nil {
		q.log.Error().Err(err).Str("topic", topic).Int("mailing_id", job.MailingID).Msg("job failed")
	}
}

func decodeJob(body []byte) (DispatchJob, error) {
	var job DispatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if job.MailingID <= 0 {
		return job, fmt.Errorf("decode job: missing mailing_id")
	}
	return job, nil
}

// Close closes the connection, which ends all consumers, and waits for the
// delivery loops to drain.
func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	chErr := q.ch.Close()
	q.mu.Unlock()

	err := q.conn.Close()
	q.wg.Wait()
	if err != nil {
		return err
	}
	return chErr
}
