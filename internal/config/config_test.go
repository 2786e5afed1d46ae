package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		FormsDir:        "forms",
		Store:           StoreConfig{Driver: StoreMemory},
		Queue:           QueueConfig{Workers: 2, Buffer: 64, JobTimeout: 30 * time.Second, RedisKey: "formsubmit:notifications"},
		Kafka:           KafkaConfig{Topic: "formsubmit.submissions"},
		Log:             LogConfig{Level: "info", Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{
		"FORMSUBMIT_HTTP_ADDR":     "127.0.0.1:9000",
		"FORMSUBMIT_STORE_DRIVER":  "sqlite",
		"FORMSUBMIT_STORE_DSN":     "/tmp/forms.db",
		"FORMSUBMIT_KAFKA_BROKERS": "a:9092,b:9092",
		"FORMSUBMIT_SMTP_ADDR":     "smtp.example.com:587",
		"FORMSUBMIT_QUEUE_WORKERS": "4",
		"FORMSUBMIT_LOG_FORMAT":    "console",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.Store.DSN != "/tmp/forms.db" || cfg.Queue.Workers != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if diff := cmp.Diff([]string{"a:9092", "b:9092"}, cfg.Kafka.Brokers); diff != "" {
		t.Fatalf("brokers mismatch: %s", diff)
	}
	if cfg.SMTP.Addr != "smtp.example.com:587" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ map[string]string
		invalid bool
	}{
		{name: "bad int", environ: map[string]string{"FORMSUBMIT_QUEUE_WORKERS": "many"}},
		{name: "unknown driver", environ: map[string]string{"FORMSUBMIT_STORE_DRIVER": "mongo"}, invalid: true},
		{name: "missing dsn", environ: map[string]string{"FORMSUBMIT_STORE_DRIVER": "postgres"}, invalid: true},
		{name: "zero workers", environ: map[string]string{"FORMSUBMIT_QUEUE_WORKERS": "0"}, invalid: true},
		{name: "zero buffer", environ: map[string]string{"FORMSUBMIT_QUEUE_BUFFER": "0"}, invalid: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFrom(tc.environ)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.invalid != errors.Is(err, ErrInvalid) {
				t.Fatalf("ErrInvalid mismatch for %v", err)
			}
			if !tc.invalid && !strings.Contains(err.Error(), "parse env:") {
				t.Fatalf("expected parse env prefix, got %v", err)
			}
		})
	}
}
