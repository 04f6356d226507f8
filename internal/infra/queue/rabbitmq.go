package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"debate-daily/internal/domain"
	"debate-daily/internal/infra/metrics"
)

// RabbitRunQueue реализует очередь задач генерации поверх AMQP.
// Потребитель регистрируется один раз: отдельный потребитель на каждый
// вызов Receive оставлял бы предыдущим доставки, которые никто не читает
// и не подтверждает, а prefetch 1 после этого останавливал бы очередь.
type RabbitRunQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
	consume    func() (<-chan amqp.Delivery, error)
}

var _ domain.RunQueue = (*RabbitRunQueue)(nil)

// NewRabbitRunQueue подключается к брокеру и объявляет устойчивую очередь.
func NewRabbitRunQueue(amqpURL, queue string) (*RabbitRunQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	q := &RabbitRunQueue{conn: conn, ch: ch, queue: queue}
	q.consume = func() (<-chan amqp.Delivery, error) {
		return q.ch.Consume(q.queue, "", false, false, false, false, nil)
	}
	return q, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitRunQueue) Enqueue(ctx context.Context, job domain.GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// deliveryChannel возвращает канал доставок единственного потребителя,
// регистрируя его при первом обращении.
func (q *RabbitRunQueue) deliveryChannel() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.consume()
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// resetConsumer сбрасывает закрытый канал доставок, чтобы следующий
// Receive зарегистрировал потребителя заново.
func (q *RabbitRunQueue) resetConsumer() {
	q.mu.Lock()
	q.deliveries = nil
	q.mu.Unlock()
}

// Receive блокирующе читает задачу из очереди. Подтверждение с success=false
// делает nack с повторной доставкой.
func (q *RabbitRunQueue) Receive(ctx context.Context) (domain.GenerationJob, domain.RunAckFunc, error) {
	deliveries, err := q.deliveryChannel()
	if err != nil {
		return domain.GenerationJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.GenerationJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			q.resetConsumer()
			return domain.GenerationJob{}, nil, errors.New("amqp: канал доставок закрыт")
		}
		var job domain.GenerationJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			_ = d.Nack(false, false)
			return domain.GenerationJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

// Close освобождает канал и соединение.
func (q *RabbitRunQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
