// Package events announces photo state changes to interested parties. Delivery is best effort: a failed or
// dropped event is logged and never fails the request that caused it.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"wuyrush.io/photo/common/logging"
	cst "wuyrush.io/photo/constants"
	md "wuyrush.io/photo/models"
)

type Publisher interface {
	// Publish hands the event over for delivery without waiting for it
	Publish(ctx context.Context, e md.Event)
	Close() error
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, md.Event) {}

func (NopPublisher) Close() error { return nil }

// messageWriter is the part of *kafka.Writer the publisher relies on
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultQueueSize    = 1000
	defaultWriteTimeout = 5 * time.Second
	defaultWriteRetries = 3
)

// KafkaPublisher queues events and writes them to a kafka topic from a background worker. Events arriving while
// the queue is full are dropped.
type KafkaPublisher struct {
	writer       messageWriter
	queue        chan md.Event
	wg           sync.WaitGroup
	writeTimeout time.Duration
	retryDelay   time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:            kafka.TCP(brokers...),
		Topic:           topic,
		Balancer:        &kafka.LeastBytes{},
		WriteTimeout:    10 * time.Second,
		WriteBackoffMax: 5 * time.Second,
		RequiredAcks:    kafka.RequireAll,
	}
	return newKafkaPublisher(w, defaultQueueSize)
}

func newKafkaPublisher(w messageWriter, queueSize int) *KafkaPublisher {
	p := &KafkaPublisher{
		writer:       w,
		queue:        make(chan md.Event, queueSize),
		writeTimeout: defaultWriteTimeout,
		retryDelay:   time.Second,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e md.Event) {
	clog := logging.ForRequest(ctx, log.WithFields(log.Fields{"kind": e.Kind, cst.LogFieldPhoto: e.Photo}))
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		clog.Warn("publisher closed, dropping event")
		return
	}
	select {
	case p.queue <- e:
	default:
		clog.Warn("event queue is full, dropping event")
	}
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	clog := logging.WithFuncName()
	for e := range p.queue {
		data, err := json.Marshal(e)
		if err != nil {
			clog.WithError(err).Error("error marshalling event")
			continue
		}
		msg := kafka.Message{Key: []byte(e.Photo), Value: data}
		for i := 0; i < defaultWriteRetries; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
			err = p.writer.WriteMessages(ctx, msg)
			cancel()
			if err == nil {
				break
			}
			clog.WithError(err).WithField("attempt", i+1).Warn("error writing event to kafka")
			time.Sleep(p.retryDelay)
		}
		if err != nil {
			clog.WithError(err).WithField(cst.LogFieldPhoto, e.Photo).Error("dropping event after all retries")
		}
	}
}

// Close stops accepting events, waits for queued ones to be written and closes the writer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
	return p.writer.Close()
}

// New returns a KafkaPublisher when brokers are given, a NopPublisher otherwise
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
