package main

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// make sure it implements Sender
var _ Sender = (*SenderPrint)(nil)

// SenderPrint writes each record as "key value" on its own line. It is
// meant for eyeballing the generated data without a broker.
type SenderPrint struct {
	mut   sync.Mutex
	out   io.Writer
	count int64
	log   Logger
}

func NewSenderPrint(log Logger, out io.Writer) *SenderPrint {
	return &SenderPrint{out: out, log: log}
}

func (s *SenderPrint) Send(_ context.Context, key, value []byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.count++
	_, err := fmt.Fprintf(s.out, "%s %s\n", key, value)
	return err
}

func (s *SenderPrint) Flush(context.Context) error {
	if f, ok := s.out.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
	return nil
}

func (s *SenderPrint) Close() error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.log.Debug("print sender wrote %d records", s.count)
	return nil
}
