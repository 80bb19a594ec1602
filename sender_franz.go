package main

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/honeycombio/kafkaloadgen/internal/mskauth"
)

// make sure it implements Sender
var _ Sender = (*SenderFranz)(nil)

// SenderFranz produces with twmb/franz-go. Records are buffered and batched
// by the client; the partition is picked by hashing the key.
type SenderFranz struct {
	client  *kgo.Client
	topic   string
	tracker deliveryTracker
	log     Logger
}

func NewSenderFranz(log Logger, opts *Options) (*SenderFranz, error) {
	return newSenderFranz(log, opts)
}

// newSenderFranz appends extra to the client options built from opts.
func newSenderFranz(log Logger, opts *Options, extra ...kgo.Opt) (*SenderFranz, error) {
	kopts := []kgo.Opt{
		kgo.SeedBrokers(opts.brokers...),
		kgo.DefaultProduceTopic(opts.Kafka.Topic),
		kgo.ClientID(opts.Kafka.ClientID),
		kgo.ProducerBatchCompression(kgo.NoCompression()),
		kgo.WithLogger(kgoLogger{log}),
	}
	if tp := tokenProvider(opts); tp != nil {
		kopts = append(kopts,
			kgo.DialTLSConfig(tlsConfig()),
			kgo.SASL(mskauth.FranzMechanism(tp)),
		)
	}
	client, err := kgo.NewClient(append(kopts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &SenderFranz{
		client: client,
		topic:  opts.Kafka.Topic,
		log:    log,
	}, nil
}

// Send always produces the record. The error, if any, belongs to an
// earlier record; it is collected before producing so that a promise
// firing right away is not mistaken for an earlier failure.
func (s *SenderFranz) Send(ctx context.Context, key, value []byte) error {
	prev := s.tracker.takeErr()
	s.tracker.start()
	s.client.Produce(ctx, &kgo.Record{Topic: s.topic, Key: key, Value: value}, func(_ *kgo.Record, err error) {
		s.tracker.done(err)
	})
	return prev
}

func (s *SenderFranz) Flush(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return err
	}
	return s.tracker.takeErr()
}

func (s *SenderFranz) Close() error {
	s.client.Close()
	return nil
}
