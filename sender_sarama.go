package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/honeycombio/kafkaloadgen/internal/mskauth"
)

// make sure it implements Sender
var _ Sender = (*SenderSarama)(nil)

// SenderSarama produces with IBM/sarama's AsyncProducer. Sarama has no
// flush call, so in-flight records are counted and Flush waits for their
// acknowledgements.
type SenderSarama struct {
	producer sarama.AsyncProducer
	topic    string
	tracker  deliveryTracker
	drained  sync.WaitGroup
	log      Logger
}

func newSaramaConfig(opts *Options) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = opts.Kafka.ClientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Compression = sarama.CompressionNone
	if tp := tokenProvider(opts); tp != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = tlsConfig()
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypeOAuth
		cfg.Net.SASL.TokenProvider = mskauth.SaramaTokenProvider{Provider: tp}
	}
	return cfg
}

func NewSenderSarama(log Logger, opts *Options) (*SenderSarama, error) {
	producer, err := sarama.NewAsyncProducer(opts.brokers, newSaramaConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("creating sarama producer: %w", err)
	}
	return newSenderSaramaFrom(log, producer, opts.Kafka.Topic), nil
}

// newSenderSaramaFrom wraps an existing producer, which must return both
// successes and errors.
func newSenderSaramaFrom(log Logger, producer sarama.AsyncProducer, topic string) *SenderSarama {
	s := &SenderSarama{
		producer: producer,
		topic:    topic,
		log:      log,
	}
	s.drained.Add(2)
	go func() {
		defer s.drained.Done()
		for range producer.Successes() {
			s.tracker.done(nil)
		}
	}()
	go func() {
		defer s.drained.Done()
		for perr := range producer.Errors() {
			s.tracker.done(perr.Err)
		}
	}()
	return s
}

func (s *SenderSarama) Send(ctx context.Context, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	s.tracker.start()
	select {
	case s.producer.Input() <- msg:
		return s.tracker.takeErr()
	case <-ctx.Done():
		s.tracker.abort()
		return ctx.Err()
	}
}

func (s *SenderSarama) Flush(ctx context.Context) error {
	if err := s.tracker.wait(ctx); err != nil {
		return err
	}
	return s.tracker.takeErr()
}

// Close shuts the producer down and waits for the result goroutines.
func (s *SenderSarama) Close() error {
	err := s.producer.Close()
	s.drained.Wait()
	return err
}
