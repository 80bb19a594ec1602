package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/honeycombio/kafkaloadgen/internal/brokers"
	"github.com/honeycombio/kafkaloadgen/internal/trade"
)

var ResourceLibrary = "kafkaloadgen"
var ResourceVersion = "dev"

type Options struct {
	Kafka struct {
		Brokers  []string `long:"brokers" description:"comma-separated bootstrap brokers (required for kafka senders)" env:"KAFKA_BOOTSTRAP_SERVERS" env-delim:"," yaml:",omitempty"`
		Region   string   `long:"region" description:"AWS region used to sign the MSK IAM token" env:"AWS_REGION" default:"us-east-1"`
		Topic    string   `long:"topic" description:"topic to publish trades to" env:"KAFKA_TOPIC" default:"demo-topic"`
		Auth     string   `long:"auth" description:"broker authentication; none is plaintext for local brokers" env:"LOADGEN_AUTH" choice:"iam" choice:"none" default:"iam"`
		ClientID string   `long:"clientid" description:"kafka client id (defaults to kafkaloadgen-<random>)" env:"LOADGEN_CLIENT_ID" yaml:",omitempty"`
	} `group:"Kafka Options"`
	Quantity struct {
		Rate    int           `long:"rate" description:"trades to publish per second; 0 pauses publishing" env:"MESSAGES_PER_SECOND" default:"100"`
		Count   int64         `long:"count" description:"stop after this many trades (0 means no limit)" env:"LOADGEN_COUNT" default:"0" yaml:",omitempty"`
		RunTime time.Duration `long:"runtime" description:"stop after this long (0 means no limit)" env:"LOADGEN_RUNTIME" default:"0s" yaml:",omitempty"`
	} `group:"Quantity Options"`
	Output struct {
		Sender       string        `long:"sender" description:"type of sender" env:"LOADGEN_SENDER" choice:"kafka" choice:"sarama" choice:"kafkago" choice:"print" choice:"dummy" default:"kafka"`
		OnError      string        `long:"onerror" description:"what to do when a publish fails" env:"LOADGEN_ON_ERROR" choice:"exit" choice:"continue" default:"exit"`
		FlushTimeout time.Duration `long:"flushtimeout" description:"maximum time to wait for pending trades at shutdown (0 means no limit)" env:"LOADGEN_FLUSH_TIMEOUT" default:"0s" yaml:",omitempty"`
		Tracing      bool          `long:"tracing" description:"emit an OpenTelemetry span per publish (configured by OTEL_* env vars)" env:"LOADGEN_TRACING" yaml:",omitempty"`
	} `group:"Output Options"`
	Global struct {
		LogLevel string `long:"loglevel" description:"level of logging" env:"LOADGEN_LOG_LEVEL" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
		Seed     string `long:"seed" description:"string seed for the trade generator (random if empty)" env:"LOADGEN_SEED" yaml:",omitempty"`
		Config   string `long:"config" description:"name of config file to load(*)" default:"" yaml:"-"`
		WriteCfg string `long:"writecfg" description:"write effective YAML config to the specified output file and quit(*)" default:"" yaml:"-"`
	} `group:"Global Options"`
	Fields  map[string]string `yaml:"fields,omitempty"`
	brokers []string
}

func newOptions() *Options {
	return &Options{Fields: make(map[string]string)}
}

func (o *Options) usesKafka() bool {
	switch o.Output.Sender {
	case "kafka", "sarama", "kafkago":
		return true
	}
	return false
}

// validate checks what the flag parser cannot and fills in derived values.
func (o *Options) validate() error {
	if o.Quantity.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %d", o.Quantity.Rate)
	}
	if o.Quantity.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", o.Quantity.Count)
	}
	var err error
	o.brokers, err = brokers.Parse(o.Kafka.Brokers)
	if err != nil {
		return err
	}
	if o.usesKafka() && len(o.brokers) == 0 {
		return fmt.Errorf("KAFKA_BOOTSTRAP_SERVERS (--brokers) is required for the %s sender", o.Output.Sender)
	}
	if o.Kafka.ClientID == "" {
		o.Kafka.ClientID = ResourceLibrary + "-" + uuid.NewString()[:8]
	}
	return nil
}

func ReadConfig(opts *Options, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return yaml.NewDecoder(f).Decode(opts)
}

func WriteConfig(opts *Options, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(opts); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const usage = `[OPTIONS] [FIELD=VALUE]...

	kafkaloadgen publishes synthetic trade records to a Kafka topic at a steady
	rate, for load testing consumers and clusters. By default it talks to Amazon
	MSK over TLS, authenticating with an IAM-signed OAUTHBEARER token for
	--region; use --auth=none for a local plaintext broker.

	Every trade carries account_id, trade_id, symbol, trade_type, quantity,
	price and timestamp, and is keyed by account_id. A progress line is logged
	every 100 trades. A rate of 0 keeps the process alive without publishing.

	Extra fields can be added to every trade as FIELD=VALUE. The value is a
	constant (sent with the matching JSON type) or a generator:
		/i, /ir -- int, /i100 is [0,100), /ir3,7 is [3,7)
		/ig     -- int, gaussian; /ig50,10 is mean 50 stddev 10
		/f, /fr -- float, same parameters as /i
		/fg     -- float, gaussian
		/s      -- lowercase string, /s8 is 8 letters (default 16)
		/sx     -- hex string
		/sw     -- word pairs, /sw12 picks from 12 of them
		/b      -- bool, /b10 is true 10% of the time (default 50%)

	Options may also come from the environment (shown in brackets), a .env
	file in the working directory, or a YAML file given with --config. Values
	in the config file win over flags and environment; options marked (*)
	cannot be set there. --writecfg shows the format.
`

// loadOptions parses args and the environment into validated Options.
func loadOptions(args []string) (*Options, error) {
	cmdopts := newOptions()
	parser := flags.NewParser(cmdopts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = ResourceLibrary
	parser.Usage = usage

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	// the config file is decoded over the parsed flags, so anything it
	// leaves out keeps its flag, env or default value
	opts := cmdopts
	if cmdopts.Global.Config != "" {
		if err := ReadConfig(opts, cmdopts.Global.Config); err != nil {
			return nil, fmt.Errorf("unable to read config file %s: %w", cmdopts.Global.Config, err)
		}
		if opts.Fields == nil {
			opts.Fields = make(map[string]string)
		}
		if err := checkChoices(parser.Group); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cmdopts.Global.Config, err)
		}
	}

	for _, arg := range rest {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("field `%s` missing required '='", arg)
		}
		opts.Fields[name] = value
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// checkChoices applies the choice constraints of g's options to their
// current values. The flag parser only checks values it parsed itself.
func checkChoices(g *flags.Group) error {
	for _, o := range g.Options() {
		if len(o.Choices) == 0 {
			continue
		}
		v, ok := o.Value().(string)
		if !ok || slices.Contains(o.Choices, v) {
			continue
		}
		return fmt.Errorf("invalid value %q for %s, allowed values are %s",
			v, o.LongName, strings.Join(o.Choices, ", "))
	}
	for _, sub := range g.Groups() {
		if err := checkChoices(sub); err != nil {
			return err
		}
	}
	return nil
}

// interruptContext is cancelled by the first SIGINT or SIGTERM. After that
// the signals get their default behavior back, so a second one kills the
// process even while shutdown is stuck.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

func main() {
	// the process environment wins over .env
	_ = godotenv.Load()

	// used until the configured level is known
	startLog := NewLogger("info")

	opts, err := loadOptions(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			os.Exit(0)
		}
		startLog.Fatal("error reading configuration: %v", err)
	}

	if opts.Global.WriteCfg != "" {
		if err := WriteConfig(opts, opts.Global.WriteCfg); err != nil {
			startLog.Fatal("unable to write config: %v", err)
		}
		startLog.Info("wrote config to %s", opts.Global.WriteCfg)
		os.Exit(0)
	}

	os.Exit(run(NewLogger(opts.Global.LogLevel), opts))
}

// run wires the generator, sender and producer together and returns the
// process exit code.
func run(log Logger, opts *Options) int {
	ctx, stop := interruptContext(context.Background())
	defer stop()

	gen, err := trade.NewGenerator(opts.Global.Seed, opts.Fields)
	if err != nil {
		log.Error("unable to create fields as specified: %v", err)
		return 1
	}

	if opts.usesKafka() {
		log.Info("creating %s producer with bootstrap servers: %s", opts.Output.Sender, strings.Join(opts.brokers, ","))
		log.Info("topic: %s, auth: %s, region: %s, client id: %s", opts.Kafka.Topic, opts.Kafka.Auth, opts.Kafka.Region, opts.Kafka.ClientID)
	}
	sender, err := newSender(log, opts)
	if err != nil {
		log.Error("unable to create sender: %v", err)
		return 1
	}

	if opts.Output.Tracing {
		shutdown, err := setupTracing()
		if err != nil {
			log.Error("unable to configure tracing: %v", err)
			_ = sender.Close()
			return 1
		}
		defer shutdown()
		sender = NewTracingSender(sender, opts.Kafka.Topic)
	}

	if err := NewProducer(sender, gen, log, opts).Run(ctx); err != nil {
		log.Error("producer stopped: %v", err)
		return 1
	}
	return 0
}
