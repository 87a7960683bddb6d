// infrastructure/queue/rabbitmq.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vitovidale/video-publisher-service/domain"
)

const TranscriptionRequestQueue = "transcription_request_queue"

// Dial connects to RabbitMQ, retrying attempts times with delay between tries.
func Dial(url string, attempts int, delay time.Duration) (*amqp.Connection, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Println("Connected to RabbitMQ")
			return conn, nil
		}
		log.Printf("Retrying RabbitMQ connection in %s... (%d/%d)", delay, i+1, attempts)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", attempts, err)
}

func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

type RabbitMQProducer struct {
	conn  *amqp.Connection
	queue string
}

func NewRabbitMQProducer(conn *amqp.Connection, queueName string) *RabbitMQProducer {
	if queueName == "" {
		queueName = TranscriptionRequestQueue
	}
	return &RabbitMQProducer{conn: conn, queue: queueName}
}

func (p *RabbitMQProducer) PublishTranscriptionRequest(ctx context.Context, message domain.TranscriptionRequestMessage) error {
	body, err := EncodeTranscriptionRequest(message)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := declare(ch, p.queue)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	log.Printf(" [x] Sent transcription request for upload %s (status %s)", message.UploadUUID, message.StatusUUID)
	return nil
}

func EncodeTranscriptionRequest(message domain.TranscriptionRequestMessage) ([]byte, error) {
	if message.UploadUUID == "" || message.StatusUUID == "" {
		return nil, domain.Validationf("transcription request needs upload and status uuids")
	}
	if message.RequestedAt == 0 {
		message.RequestedAt = time.Now().Unix()
	}
	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}

// HandlerFunc processes one transcription request. Errors are logged; the
// handler is expected to have recorded the failure on the video status.
type HandlerFunc func(ctx context.Context, message domain.TranscriptionRequestMessage) error

type RabbitMQConsumer struct {
	conn  *amqp.Connection
	queue string
}

func NewRabbitMQConsumer(conn *amqp.Connection, queueName string) *RabbitMQConsumer {
	if queueName == "" {
		queueName = TranscriptionRequestQueue
	}
	return &RabbitMQConsumer{conn: conn, queue: queueName}
}

// Start consumes until ctx is cancelled or the channel closes.
func (c *RabbitMQConsumer) Start(ctx context.Context, handle HandlerFunc) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel for consumer: %w", err)
	}
	defer ch.Close()

	q, err := declare(ch, c.queue)
	if err != nil {
		return fmt.Errorf("failed to declare a queue for consumer: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log.Printf(" [*] Waiting for messages on %s", q.Name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel for %s closed", q.Name)
			}
			HandleDelivery(ctx, d, handle)
		}
	}
}

// HandleDelivery decodes d, runs handle and settles the delivery. Malformed
// messages are rejected without requeue; everything else is acked.
func HandleDelivery(ctx context.Context, d amqp.Delivery, handle HandlerFunc) {
	log.Printf(" [x] Received a message: %s", d.Body)

	var message domain.TranscriptionRequestMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		log.Printf("ERROR: Failed to unmarshal message: %v", err)
		if err := d.Reject(false); err != nil {
			log.Printf("ERROR: Failed to reject message: %v", err)
		}
		return
	}

	if err := handle(ctx, message); err != nil {
		log.Printf("ERROR: Processing upload %s failed: %v", message.UploadUUID, err)
	}
	if err := d.Ack(false); err != nil {
		log.Printf("ERROR: Failed to ack message: %v", err)
	}
}
