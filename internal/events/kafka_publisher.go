package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// KafkaConfig параметры подключения к Kafka
type KafkaConfig struct {
	BootstrapServers string
	Topic            string
	Acks             string
	CompressionType  string
}

// producer подмножество методов kafka.Producer, используемое публикатором
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher публикует события анализа в топик Kafka.
// Ключ сообщения - session_id, поэтому события одной сессии упорядочены.
type KafkaPublisher struct {
	producer     producer
	topic        string
	deliveryChan chan kafka.Event
	logger       *logrus.Logger

	// Метрики
	messagesSent   atomic.Int64
	messagesAcked  atomic.Int64
	messagesFailed atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries  int
	baseBackoff time.Duration
}

// NewKafkaPublisher создает публикатор и запускает обработку отчетов о доставке
func NewKafkaPublisher(cfg KafkaConfig, logger *logrus.Logger) (*KafkaPublisher, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"compression.type":   cfg.CompressionType,
		"acks":               cfg.Acks,
		"linger.ms":          10,
		"enable.idempotence": true,
		"request.timeout.ms": 30000,
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	kp := newKafkaPublisher(p, cfg.Topic, logger)
	logger.WithFields(logrus.Fields{"topic": cfg.Topic, "servers": cfg.BootstrapServers}).
		Info("Kafka публикатор инициализирован")
	return kp, nil
}

func newKafkaPublisher(p producer, topic string, logger *logrus.Logger) *KafkaPublisher {
	ctx, cancel := context.WithCancel(context.Background())
	kp := &KafkaPublisher{
		producer:     p,
		topic:        topic,
		deliveryChan: make(chan kafka.Event, 1000),
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		maxRetries:   5,
		baseBackoff:  100 * time.Millisecond,
	}

	kp.wg.Add(1)
	go kp.handleDeliveryReports()
	return kp
}

// handleDeliveryReports обрабатывает подтверждения доставки в отдельной горутине
func (kp *KafkaPublisher) handleDeliveryReports() {
	defer kp.wg.Done()

	for {
		select {
		case <-kp.ctx.Done():
			return
		case e := <-kp.deliveryChan:
			m, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			if m.TopicPartition.Error != nil {
				kp.messagesFailed.Add(1)
				kp.logger.Errorf("Ошибка доставки события: %v", m.TopicPartition.Error)
				continue
			}
			kp.messagesAcked.Add(1)
		}
	}
}

// PublishAnalysis отправляет событие с повторами и экспоненциальной задержкой
func (kp *KafkaPublisher) PublishAnalysis(ctx context.Context, event *AnalysisEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize analysis event: %w", err)
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &kp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "camera_id", Value: []byte(event.CameraID)},
			{Key: "session_id", Value: []byte(event.SessionID)},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= kp.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := kp.baseBackoff * time.Duration(1<<uint(attempt-1))
			kp.logger.Debugf("Повтор публикации %d/%d через %v", attempt, kp.maxRetries, backoff)
			select {
			case <-ctx.Done():
				kp.messagesFailed.Add(1)
				return fmt.Errorf("publish cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		err := kp.producer.Produce(message, kp.deliveryChan)
		if err == nil {
			kp.messagesSent.Add(1)
			return nil
		}
		lastErr = err

		if !retriable(err) {
			kp.messagesFailed.Add(1)
			return fmt.Errorf("non-retriable error: %w", err)
		}
	}

	kp.messagesFailed.Add(1)
	return fmt.Errorf("failed after %d retries: %w", kp.maxRetries, lastErr)
}

// retriable локальная очередь переполнена или брокер сообщил о временной ошибке
func retriable(err error) bool {
	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return false
	}
	return kafkaErr.IsRetriable() || kafkaErr.Code() == kafka.ErrQueueFull
}

// Metrics возвращает текущие счетчики публикатора
func (kp *KafkaPublisher) Metrics() map[string]int64 {
	return map[string]int64{
		"messages_sent":   kp.messagesSent.Load(),
		"messages_acked":  kp.messagesAcked.Load(),
		"messages_failed": kp.messagesFailed.Load(),
	}
}

// Close отправляет оставшиеся сообщения и закрывает producer
func (kp *KafkaPublisher) Close() {
	remaining := kp.producer.Flush(int((10 * time.Second).Milliseconds()))
	if remaining > 0 {
		kp.logger.Warnf("%d событий не доставлено до закрытия", remaining)
	}

	kp.cancel()
	kp.wg.Wait()
	kp.producer.Close()

	kp.logger.WithFields(logrus.Fields{
		"sent":   kp.messagesSent.Load(),
		"acked":  kp.messagesAcked.Load(),
		"failed": kp.messagesFailed.Load(),
	}).Info("Kafka публикатор закрыт")
}
