package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/honeycombio/kafkaloadgen/internal/mskauth"
)

// make sure it implements Sender
var _ Sender = (*SenderKafkaGo)(nil)

// SenderKafkaGo produces with segmentio/kafka-go in async mode. The
// writer's Completion hook settles the in-flight count.
type SenderKafkaGo struct {
	writer  messageWriter
	tracker deliveryTracker
	log     Logger
}

// messageWriter is the part of *kafka.Writer the sender uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewSenderKafkaGo(log Logger, opts *Options) (*SenderKafkaGo, error) {
	transport := &kafka.Transport{
		ClientID:    opts.Kafka.ClientID,
		DialTimeout: 10 * time.Second,
	}
	if tp := tokenProvider(opts); tp != nil {
		transport.TLS = tlsConfig()
		transport.SASL = mskauth.KafkaGoMechanism{Provider: tp}
	}

	s := &SenderKafkaGo{log: log}
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(opts.brokers...),
		Topic:        opts.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Transport:    transport,
		ErrorLogger:  kafka.LoggerFunc(log.Error),
		Completion:   s.complete,
	}
	return s, nil
}

// complete settles a batch the writer finished with, successfully or not.
func (s *SenderKafkaGo) complete(messages []kafka.Message, err error) {
	for range messages {
		s.tracker.done(err)
	}
}

func (s *SenderKafkaGo) Send(ctx context.Context, key, value []byte) error {
	s.tracker.start()
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		s.tracker.abort()
		return err
	}
	return s.tracker.takeErr()
}

func (s *SenderKafkaGo) Flush(ctx context.Context) error {
	if err := s.tracker.wait(ctx); err != nil {
		return err
	}
	return s.tracker.takeErr()
}

func (s *SenderKafkaGo) Close() error {
	return s.writer.Close()
}
