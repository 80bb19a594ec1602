package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var optionEnv = []string{
	"KAFKA_BOOTSTRAP_SERVERS", "AWS_REGION", "KAFKA_TOPIC", "MESSAGES_PER_SECOND",
	"LOADGEN_SENDER", "LOADGEN_AUTH", "LOADGEN_COUNT", "LOADGEN_RUNTIME",
	"LOADGEN_ON_ERROR", "LOADGEN_FLUSH_TIMEOUT", "LOADGEN_CLIENT_ID",
	"LOADGEN_SEED", "LOADGEN_LOG_LEVEL", "LOADGEN_TRACING",
}

// clearEnv unsets the option variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range optionEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadOptions_Defaults(t *testing.T) {
	clearEnv(t)
	opts, err := loadOptions([]string{"--sender=dummy"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Quantity.Rate != 100 {
		t.Errorf("rate = %d, want 100", opts.Quantity.Rate)
	}
	if opts.Kafka.Topic != "demo-topic" {
		t.Errorf("topic = %q, want demo-topic", opts.Kafka.Topic)
	}
	if opts.Kafka.Region != "us-east-1" {
		t.Errorf("region = %q, want us-east-1", opts.Kafka.Region)
	}
	if opts.Kafka.Auth != "iam" {
		t.Errorf("auth = %q, want iam", opts.Kafka.Auth)
	}
	if opts.Output.OnError != OnErrorExit {
		t.Errorf("onerror = %q, want exit", opts.Output.OnError)
	}
	if !strings.HasPrefix(opts.Kafka.ClientID, "kafkaloadgen-") {
		t.Errorf("client id = %q", opts.Kafka.ClientID)
	}
	if len(opts.brokers) != 0 || len(opts.Fields) != 0 {
		t.Errorf("unexpected brokers %v or fields %v", opts.brokers, opts.Fields)
	}
}

func TestLoadOptions_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "b-1.example.com:9098, b-2.example.com")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("KAFKA_TOPIC", "trades")
	t.Setenv("MESSAGES_PER_SECOND", "5")
	t.Setenv("LOADGEN_RUNTIME", "90s")

	opts, err := loadOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b-1.example.com:9098", "b-2.example.com:9098"}
	if !reflect.DeepEqual(opts.brokers, want) {
		t.Errorf("brokers = %v, want %v", opts.brokers, want)
	}
	if opts.Kafka.Region != "eu-west-1" || opts.Kafka.Topic != "trades" {
		t.Errorf("region %q topic %q", opts.Kafka.Region, opts.Kafka.Topic)
	}
	if opts.Quantity.Rate != 5 {
		t.Errorf("rate = %d, want 5", opts.Quantity.Rate)
	}
	if opts.Quantity.RunTime != 90*time.Second {
		t.Errorf("runtime = %v, want 90s", opts.Quantity.RunTime)
	}

	// flags win over the environment
	opts, err = loadOptions([]string{"--rate=0"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Quantity.Rate != 0 {
		t.Errorf("rate = %d, want 0", opts.Quantity.Rate)
	}
}

func TestLoadOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{"non-integer rate", map[string]string{"MESSAGES_PER_SECOND": "fast"}, []string{"--sender=dummy"}, "rate"},
		{"negative rate", nil, []string{"--sender=dummy", "--rate=-5"}, "must not be negative"},
		{"negative count", nil, []string{"--sender=dummy", "--count=-1"}, "must not be negative"},
		{"missing brokers", nil, nil, "KAFKA_BOOTSTRAP_SERVERS"},
		{"missing brokers for sarama", nil, []string{"--sender=sarama"}, "sarama sender"},
		{"unknown sender", nil, []string{"--sender=carrier-pigeon"}, "carrier-pigeon"},
		{"bad broker", map[string]string{"KAFKA_BOOTSTRAP_SERVERS": "b-1:notaport"}, nil, "b-1"},
		{"field without value", nil, []string{"--sender=dummy", "env"}, "missing required '='"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadOptions(tt.args)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadOptions_Fields(t *testing.T) {
	clearEnv(t)
	opts, err := loadOptions([]string{"--sender=dummy", "desk=equities", "size=/ir1,10"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"desk": "equities", "size": "/ir1,10"}
	if !reflect.DeepEqual(opts.Fields, want) {
		t.Errorf("fields = %v, want %v", opts.Fields, want)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	written, err := loadOptions([]string{
		"--sender=print", "--rate=7", "--topic=trades", "--auth=none",
		"--clientid=roundtrip", "--seed=abc", "desk=fx",
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "loadgen.yaml")
	if err := WriteConfig(written, path); err != nil {
		t.Fatal(err)
	}

	read, err := loadOptions([]string{"--config", path})
	if err != nil {
		t.Fatal(err)
	}
	if read.Output.Sender != "print" || read.Quantity.Rate != 7 || read.Kafka.Topic != "trades" {
		t.Errorf("sender %q rate %d topic %q", read.Output.Sender, read.Quantity.Rate, read.Kafka.Topic)
	}
	if read.Kafka.Auth != "none" || read.Kafka.ClientID != "roundtrip" || read.Global.Seed != "abc" {
		t.Errorf("auth %q client id %q seed %q", read.Kafka.Auth, read.Kafka.ClientID, read.Global.Seed)
	}
	if read.Fields["desk"] != "fx" {
		t.Errorf("fields = %v", read.Fields)
	}
	if read.Global.Config != path {
		t.Errorf("config = %q, want %q", read.Global.Config, path)
	}
}

func TestConfig_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("output:\n  sender: dummy\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := loadOptions([]string{"--config", path})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Output.Sender != "dummy" || opts.Quantity.Rate != 100 {
		t.Errorf("sender %q rate %d", opts.Output.Sender, opts.Quantity.Rate)
	}
}

func TestConfig_ChoicesAreChecked(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"onerror", "output:\n  sender: dummy\n  onerror: bogus\n", "onerror"},
		{"loglevel", "output:\n  sender: dummy\nglobal:\n  loglevel: loud\n", "loglevel"},
		{"sender", "output:\n  sender: pigeon\n", "pigeon"},
		{"auth", "kafka:\n  auth: kerberos\noutput:\n  sender: dummy\n", "kerberos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := loadOptions([]string{"--config", path})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want an error mentioning %q", err, tt.want)
			}
		})
	}
}
