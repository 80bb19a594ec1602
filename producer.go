package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/honeycombio/kafkaloadgen/internal/trade"
)

type ProducerState int32

const (
	Paused ProducerState = iota
	Running
	Stopping
)

func (s ProducerState) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("ProducerState(%d)", int32(s))
}

const (
	OnErrorExit     = "exit"
	OnErrorContinue = "continue"

	progressEvery    = 100
	defaultPauseTick = 60 * time.Second
)

// errPublishFailed is returned from Run when a publish failure stopped the
// loop.
var errPublishFailed = errors.New("publish failed")

// Producer is the publish loop. It owns its Sender: Run flushes and closes
// it before returning, whatever made the loop stop.
type Producer struct {
	sender       Sender
	gen          *trade.Generator
	log          Logger
	rate         int
	maxCount     int64
	runTime      time.Duration
	onError      string
	flushTimeout time.Duration
	pauseTick    time.Duration

	count atomic.Int64
	state atomic.Int32
}

func NewProducer(sender Sender, gen *trade.Generator, log Logger, opts *Options) *Producer {
	return &Producer{
		sender:       sender,
		gen:          gen,
		log:          log,
		rate:         opts.Quantity.Rate,
		maxCount:     opts.Quantity.Count,
		runTime:      opts.Quantity.RunTime,
		onError:      opts.Output.OnError,
		flushTimeout: opts.Output.FlushTimeout,
		pauseTick:    defaultPauseTick,
	}
}

// Count is the number of records the sender accepted.
func (p *Producer) Count() int64 {
	return p.count.Load()
}

func (p *Producer) State() ProducerState {
	return ProducerState(p.state.Load())
}

func (p *Producer) setState(s ProducerState) {
	p.state.Store(int32(s))
}

// Run publishes until ctx is done, the count or runtime limit is reached,
// or a publish fails under the exit policy. A rate of 0 publishes nothing
// and just waits for ctx.
func (p *Producer) Run(ctx context.Context) error {
	defer p.shutdown()

	if p.runTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTime)
		defer cancel()
	}

	if p.rate == 0 {
		p.pause(ctx)
		return nil
	}
	return p.run(ctx)
}

func (p *Producer) pause(ctx context.Context) {
	p.setState(Paused)
	p.log.Info("producer paused: rate is 0 (not sending messages)")

	ticker := time.NewTicker(p.pauseTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("stopping producer")
			return
		case <-ticker.C:
			p.log.Debug("producer still paused")
		}
	}
}

func (p *Producer) run(ctx context.Context) error {
	p.setState(Running)
	delay := time.Second / time.Duration(p.rate)
	p.log.Info("starting continuous producer: %d messages/second", p.rate)
	p.log.Info("delay between messages: %.4f seconds", delay.Seconds())

	// records already handed over must survive the interrupt so the final
	// flush can deliver them
	sendCtx := context.WithoutCancel(ctx)

	var stopErr error
	for ctx.Err() == nil {
		t := p.gen.Next()
		err := p.publish(sendCtx, t)
		// an earlier record's failure does not stop this one from counting
		if err == nil || errors.Is(err, errDelivery) {
			if n := p.count.Add(1); n%progressEvery == 0 {
				p.log.Info("sent trades count: %d - last: %s", n, t)
			}
		}
		if err != nil {
			p.log.Error("publish failed after %d trades: %v", p.Count(), err)
			if p.onError != OnErrorContinue {
				stopErr = fmt.Errorf("%w: %w", errPublishFailed, err)
				break
			}
		}

		if p.maxCount > 0 && p.Count() >= p.maxCount {
			p.log.Info("reached count limit of %d", p.maxCount)
			break
		}

		sleepCtx(ctx, delay)
	}

	p.setState(Stopping)
	p.log.Info("stopping producer. Total messages sent: %d", p.Count())
	return stopErr
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Producer) publish(ctx context.Context, t trade.Trade) error {
	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding trade %s: %w", t.TradeID, err)
	}
	return p.sender.Send(ctx, t.Key(), value)
}

// shutdown flushes and then closes the sender. Errors are logged; there is
// nobody left to return them to.
func (p *Producer) shutdown() {
	p.setState(Stopping)
	ctx := context.Background()
	if p.flushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.flushTimeout)
		defer cancel()
	}
	if err := p.sender.Flush(ctx); err != nil {
		p.log.Error("flush: %v", err)
	}
	if err := p.sender.Close(); err != nil {
		p.log.Error("close: %v", err)
	}
}
