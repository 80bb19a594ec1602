package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/honeycombio/kafkaloadgen/internal/mskauth"
)

// A Sender publishes keyed records to the configured topic.
//
// Send may hand the record to a background batcher and return before it is
// delivered. Asynchronous senders report a failed delivery from the next
// call to Send, or from Flush, as an error wrapping errDelivery. A Send that
// returns such an error has still accepted its own record. Flush blocks until everything handed to Send
// has been delivered or failed. Close releases the client; it is called
// exactly once, after Flush.
type Sender interface {
	Send(ctx context.Context, key, value []byte) error
	Flush(ctx context.Context) error
	Close() error
}

func newSender(log Logger, opts *Options) (Sender, error) {
	switch opts.Output.Sender {
	case "dummy":
		return NewSenderDummy(log), nil
	case "print":
		return NewSenderPrint(log, os.Stdout), nil
	case "kafka":
		return NewSenderFranz(log, opts)
	case "sarama":
		return NewSenderSarama(log, opts)
	case "kafkago":
		return NewSenderKafkaGo(log, opts)
	}
	return nil, fmt.Errorf("unknown sender %q", opts.Output.Sender)
}

// tokenProvider returns nil when the brokers do not need authentication.
func tokenProvider(opts *Options) mskauth.TokenProvider {
	if opts.Kafka.Auth != "iam" {
		return nil
	}
	return mskauth.NewIAMTokenProvider(opts.Kafka.Region)
}

// tlsConfig returns the client TLS settings for authenticated brokers,
// verifying against the system roots.
func tlsConfig() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// errDelivery marks the failure of a record accepted by an earlier Send.
var errDelivery = errors.New("earlier record failed delivery")

// deliveryTracker counts records handed to an asynchronous client and keeps
// the first delivery error until someone collects it.
type deliveryTracker struct {
	inflight sync.WaitGroup
	mut      sync.Mutex
	err      error
}

func (d *deliveryTracker) start() {
	d.inflight.Add(1)
}

// abort undoes start for a record the client never accepted.
func (d *deliveryTracker) abort() {
	d.inflight.Done()
}

func (d *deliveryTracker) done(err error) {
	if err != nil {
		d.mut.Lock()
		if d.err == nil {
			d.err = err
		}
		d.mut.Unlock()
	}
	d.inflight.Done()
}

// takeErr returns and clears the pending delivery error, wrapped in
// errDelivery.
func (d *deliveryTracker) takeErr() error {
	d.mut.Lock()
	defer d.mut.Unlock()
	err := d.err
	d.err = nil
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errDelivery, err)
}

// wait blocks until every started record is done or ctx ends.
func (d *deliveryTracker) wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
