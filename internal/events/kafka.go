package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// DefaultQueueSize — сколько событий может ждать отправки.
	DefaultQueueSize = 1024
	// writeTimeout ограничивает одну запись в брокер.
	writeTimeout = 10 * time.Second
)

var (
	// ErrQueueFull — очередь публикации переполнена, событие отброшено.
	ErrQueueFull = errors.New("events: publish queue full")
	// ErrClosed — публикатор уже закрыт.
	ErrClosed = errors.New("events: publisher closed")
)

// MessageWriter — часть *kafka.Writer, нужная публикатору.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka публикует события в топик; ключ сообщения — ID комментария,
// поэтому события одного документа попадают в одну партицию по порядку.
//
// Publish только ставит сообщение в очередь: запись в брокер идёт
// в отдельной горутине и не задерживает запрос.
type Kafka struct {
	w     MessageWriter
	log   *slog.Logger
	queue chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafka создаёт публикатор поверх kafka.Writer.
// Сообщения уходят по одному, без ожидания наполнения батча.
func NewKafka(brokers []string, topic string, log *slog.Logger) *Kafka {
	return NewKafkaFromWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
	}, log, DefaultQueueSize)
}

// NewKafkaFromWriter запускает публикатор поверх произвольного writer.
func NewKafkaFromWriter(w MessageWriter, log *slog.Logger, queueSize int) *Kafka {
	if log == nil {
		log = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	k := &Kafka{
		w:     w,
		log:   log,
		queue: make(chan kafka.Message, queueSize),
		done:  make(chan struct{}),
	}
	go k.run()

	return k
}

func (k *Kafka) run() {
	defer close(k.done)

	for msg := range k.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := k.w.WriteMessages(ctx, msg)
		cancel()

		if err != nil {
			k.log.Error("event_publish_failed",
				slog.String("comment_id", string(msg.Key)),
				slog.String("err", err.Error()),
			)
		}
	}
}

// Publish ставит событие в очередь. Не блокируется: при полной очереди
// возвращает ErrQueueFull.
func (k *Kafka) Publish(_ context.Context, e Event) error {
	const op = "events/kafka/Publish"

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.CommentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	select {
	case k.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%s: %w", op, ErrQueueFull)
	}
}

// Close дожидается отправки очереди и закрывает writer.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.queue)
	k.mu.Unlock()

	<-k.done
	return k.w.Close()
}
