package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/honeycombio/kafkaloadgen/internal/brokers"
	"github.com/honeycombio/kafkaloadgen/internal/mskauth"
)

// Options defines the command line arguments
type Options struct {
	Brokers []string      `long:"brokers" description:"comma-separated bootstrap brokers" env:"KAFKA_BOOTSTRAP_SERVERS" env-delim:"," required:"true"`
	Topic   string        `long:"topic" description:"topic to read trades from" env:"KAFKA_TOPIC" default:"demo-topic"`
	Region  string        `long:"region" description:"AWS region used to sign the MSK IAM token" env:"AWS_REGION" default:"us-east-1"`
	Auth    string        `long:"auth" description:"broker authentication" choice:"iam" choice:"none" default:"iam"`
	Group   string        `long:"group" description:"consumer group id; a new group starts at the end of the topic" default:"tradesink"`
	Report  time.Duration `long:"report" description:"how often to log the receive rate" default:"5s"`
}

func newReader(opts Options, seeds []string) *kafka.Reader {
	dialer := &kafka.Dialer{
		ClientID:  "tradesink",
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if opts.Auth == "iam" {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
		dialer.SASLMechanism = mskauth.KafkaGoMechanism{Provider: mskauth.NewIAMTokenProvider(opts.Region)}
	}
	cfg := kafka.ReaderConfig{
		Brokers:  seeds,
		Topic:    opts.Topic,
		GroupID:  opts.Group,
		Dialer:   dialer,
		MinBytes: 1e3,
		MaxBytes: 1e6,
		MaxWait:  500 * time.Millisecond,

		StartOffset: kafka.LastOffset,
	}
	return kafka.NewReader(cfg)
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	seeds, err := brokers.Parse(opts.Brokers)
	if err != nil {
		logger.Fatal("bad broker list", zap.Error(err))
	}
	if len(seeds) == 0 {
		logger.Fatal("no brokers given")
	}
	if opts.Group == "" || opts.Report <= 0 {
		logger.Fatal("--group must be set and --report must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := newReader(opts, seeds)
	tracker := NewRateTracker()
	sink := NewTradeSink(tracker, logger)

	logger.Info("starting trade sink",
		zap.Strings("brokers", seeds),
		zap.String("topic", opts.Topic),
		zap.String("group", opts.Group),
		zap.String("auth", opts.Auth))

	go func() {
		ticker := time.NewTicker(opts.Report)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info(tracker.Summary().String())
			}
		}
	}()

	if err := sink.Run(ctx, reader); err != nil {
		logger.Error("reading trades", zap.Error(err))
	}
	if err := reader.Close(); err != nil {
		logger.Warn("closing reader", zap.Error(err))
	}

	s := tracker.Summary()
	fmt.Printf("\n%d trades (%d invalid, %d repeated trade ids) received in %s, %.2f/s\n",
		s.Total, s.Invalid, sink.Repeated(), s.Running.Round(time.Second), s.Average)
	logger.Info("shutting down")
}
