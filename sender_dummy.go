package main

import (
	"context"
	"sync/atomic"
)

// make sure it implements Sender
var _ Sender = (*SenderDummy)(nil)

// SenderDummy drops every record and only counts them. It measures the
// generator on its own.
type SenderDummy struct {
	records atomic.Int64
	bytes   atomic.Int64
	log     Logger
}

func NewSenderDummy(log Logger) *SenderDummy {
	return &SenderDummy{log: log}
}

func (s *SenderDummy) Send(_ context.Context, key, value []byte) error {
	s.records.Add(1)
	s.bytes.Add(int64(len(key) + len(value)))
	return nil
}

func (s *SenderDummy) Flush(context.Context) error {
	return nil
}

func (s *SenderDummy) Close() error {
	s.log.Info("dummy sender dropped %d records (%d bytes)", s.records.Load(), s.bytes.Load())
	return nil
}
