// Package config loads command configuration from FORMSUBMIT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds every runtime setting.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	FormsDir        string        `env:"FORMS_DIR" envDefault:"forms"`
	SitesFile       string        `env:"SITES_FILE"`

	Store StoreConfig `envPrefix:"STORE_"`
	Mail  MailConfig  `envPrefix:"MAIL_"`
	SMTP  SMTPConfig  `envPrefix:"SMTP_"`
	Queue QueueConfig `envPrefix:"QUEUE_"`
	Kafka KafkaConfig `envPrefix:"KAFKA_"`
	Log   LogConfig   `envPrefix:"LOG_"`
}

// StoreConfig selects the submission store.
type StoreConfig struct {
	Driver string `env:"DRIVER" envDefault:"memory"`
	DSN    string `env:"DSN"`
}

// MailConfig configures notification composition.
type MailConfig struct {
	Templates string `env:"TEMPLATES"`
	From      string `env:"FROM"`
}

// SMTPConfig configures delivery. An empty Addr logs emails instead.
type SMTPConfig struct {
	Addr     string `env:"ADDR"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// QueueConfig configures notification dispatch. With RedisAddr set, jobs go
// through a redis list instead of the in-process queue.
type QueueConfig struct {
	Workers    int           `env:"WORKERS" envDefault:"2"`
	Buffer     int           `env:"BUFFER" envDefault:"64"`
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"30s"`
	RedisAddr  string        `env:"REDIS_ADDR"`
	RedisKey   string        `env:"REDIS_KEY" envDefault:"formsubmit:notifications"`
}

// KafkaConfig enables forwarding of created submissions.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"formsubmit.submissions"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Prefix is prepended to every variable name.
const Prefix = "FORMSUBMIT_"

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that env tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("%w: %sSTORE_DSN is required for the %s driver", ErrInvalid, Prefix, c.Store.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("%w: %sQUEUE_WORKERS must be positive", ErrInvalid, Prefix)
	}
	if c.Queue.Buffer < 1 {
		return fmt.Errorf("%w: %sQUEUE_BUFFER must be positive", ErrInvalid, Prefix)
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("%w: %sKAFKA_TOPIC is required with brokers", ErrInvalid, Prefix)
	}
	return nil
}
