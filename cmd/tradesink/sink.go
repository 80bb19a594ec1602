package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	cuckoo "github.com/panmari/cuckoofilter"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/honeycombio/kafkaloadgen/internal/trade"
)

// MessageReader is the part of *kafka.Reader the sink uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// TradeSink validates trade records read from the topic and keeps rate
// statistics for them.
type TradeSink struct {
	tracker  *RateTracker
	tradeIDs *cuckoo.Filter
	repeated atomic.Int64
	log      *zap.Logger
}

func NewTradeSink(tracker *RateTracker, log *zap.Logger) *TradeSink {
	return &TradeSink{
		tracker:  tracker,
		tradeIDs: cuckoo.NewFilter(1000000),
		log:      log,
	}
}

// Process checks one record. The returned error says what is wrong with it;
// the record is counted either way.
func (s *TradeSink) Process(key, value []byte) error {
	s.tracker.Track(1)
	if err := s.check(key, value); err != nil {
		s.tracker.TrackInvalid()
		return err
	}
	return nil
}

func (s *TradeSink) check(key, value []byte) error {
	var t trade.Trade
	if err := json.Unmarshal(value, &t); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	if err := trade.Validate(t); err != nil {
		return err
	}
	if !bytes.Equal(key, t.Key()) {
		return fmt.Errorf("key %q does not match account_id %s", key, t.AccountID)
	}
	// trade ids are random, so repeats are expected now and then; they are
	// reported, not rejected
	id := []byte(t.TradeID)
	if s.tradeIDs.Lookup(id) {
		s.repeated.Add(1)
	} else {
		s.tradeIDs.Insert(id)
	}
	return nil
}

// Repeated is the number of records whose trade_id was probably seen
// before.
func (s *TradeSink) Repeated() int64 {
	return s.repeated.Load()
}

// Run reads until ctx is done or the reader fails.
func (s *TradeSink) Run(ctx context.Context, r MessageReader) error {
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := s.Process(m.Key, m.Value); err != nil {
			s.log.Warn("invalid trade",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.ByteString("value", m.Value),
				zap.Error(err))
			continue
		}
		s.log.Debug("trade received", zap.ByteString("key", m.Key), zap.Int64("offset", m.Offset))
	}
}
