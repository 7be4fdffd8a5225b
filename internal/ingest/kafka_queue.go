package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hallimar/bookvault/internal/core"
)

// KafkaQueue implements core.IngestQueue over a Kafka topic. It gives
// the import pipeline durability and lets multiple drainers share one
// consumer group.
type KafkaQueue struct {
	writer      *kafka.Writer
	reader      *kafka.Reader
	topic       string
	readTimeout time.Duration
	mu          sync.RWMutex
	closed      bool
	size        int // approximate; Kafka exposes no exact depth
}

// KafkaQueueConfig holds the settings for the Kafka ingest queue.
type KafkaQueueConfig struct {
	Brokers         []string
	Topic           string
	GroupID         string
	BatchSize       int
	BatchTimeout    time.Duration
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	RequiredAcks    int // 0, 1, or -1 (all)
	MaxMessageBytes int
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
}

// NewKafkaQueue creates a Kafka-backed ingest queue.
func NewKafkaQueue(config KafkaQueueConfig) (*KafkaQueue, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if config.GroupID == "" {
		config.GroupID = "bookvault-import"
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    config.BatchSize,
		BatchBytes:   int64(config.MaxMessageBytes),
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		MaxAttempts:  3,
		Async:        false,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		MaxWait:     config.MaxWait,
		StartOffset: kafka.FirstOffset,
	})

	log.Printf("[KAFKA] ingest queue ready: topic=%s group=%s brokers=%v",
		config.Topic, config.GroupID, config.Brokers)

	return &KafkaQueue{
		writer:      writer,
		reader:      reader,
		topic:       config.Topic,
		readTimeout: config.ReadTimeout,
	}, nil
}

// Enqueue produces a job to the topic. The ISBN keys the message so
// retries for the same book land on the same partition.
func (q *KafkaQueue) Enqueue(ctx context.Context, job *core.InsertJob) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	if job == nil {
		return ErrInvalidJob
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal insert job: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(job.Book.ISBN),
		Value: data,
		Time:  job.EnqueuedAt,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(job.Source)},
		},
	}

	if err := q.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	q.mu.Lock()
	q.size++
	q.mu.Unlock()
	return nil
}

// Dequeue consumes up to batchSize jobs. The configured read timeout
// bounds the wait when the topic is drained; offsets are committed as
// messages are taken.
func (q *KafkaQueue) Dequeue(ctx context.Context, batchSize int) ([]*core.InsertJob, error) {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	q.mu.RUnlock()

	if batchSize <= 0 {
		batchSize = 100
	}

	jobs := make([]*core.InsertJob, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		readCtx, cancel := context.WithTimeout(ctx, q.readTimeout)
		message, err := q.reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			log.Printf("[KAFKA] failed to read from topic %s: %v", q.topic, err)
			break
		}

		var job core.InsertJob
		if err := json.Unmarshal(message.Value, &job); err != nil {
			log.Printf("[KAFKA] skipping undecodable message at partition %d offset %d: %v",
				message.Partition, message.Offset, err)
			continue
		}
		jobs = append(jobs, &job)

		if err := q.reader.CommitMessages(ctx, message); err != nil {
			log.Printf("[KAFKA] failed to commit offset %d: %v", message.Offset, err)
		}
	}

	if len(jobs) > 0 {
		q.mu.Lock()
		if q.size >= len(jobs) {
			q.size -= len(jobs)
		} else {
			q.size = 0
		}
		q.mu.Unlock()
	}
	return jobs, nil
}

// Size returns an approximate queue depth.
func (q *KafkaQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.size
}

// Close closes the writer and reader.
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if err := q.writer.Close(); err != nil {
		log.Printf("[KAFKA] failed to close writer: %v", err)
	}
	return q.reader.Close()
}
