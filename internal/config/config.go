package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink kinds accepted by SINK.
const (
	SinkKafka  = "kafka"
	SinkSQLite = "sqlite"
	SinkMQTT   = "mqtt"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables
// and an optional reading-service.yaml file.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	Sink            string
	BatchSize       int
	LoadMaxAttempts int

	KafkaBrokers     []string
	KafkaReportTopic string

	SQLitePath string

	MQTTBroker         string
	MQTTClientID       string
	MQTTTopicPrefix    string
	MQTTConnectTimeout time.Duration
}

// Load reads configuration, applying defaults where unset. Environment
// variables take precedence over the config file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("reading-service")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("SINK", SinkKafka)
	v.SetDefault("BATCH_SIZE", 50)
	v.SetDefault("LOAD_MAX_ATTEMPTS", 3)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_REPORT_TOPIC", "weather-reading-reports")
	v.SetDefault("SQLITE_PATH", "data/readings.db")
	v.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	v.SetDefault("MQTT_CLIENT_ID", "weather-reading-service")
	v.SetDefault("MQTT_TOPIC_PREFIX", "stations")
	v.SetDefault("MQTT_CONNECT_TIMEOUT", "10s")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	shutdownTimeout, err := parsePositiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	connectTimeout, err := parsePositiveDuration(v, "MQTT_CONNECT_TIMEOUT")
	if err != nil {
		return nil, err
	}
	batchSize, err := parseInt(v, "BATCH_SIZE")
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseInt(v, "LOAD_MAX_ATTEMPTS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		ShutdownTimeout:    shutdownTimeout,
		Sink:               strings.ToLower(strings.TrimSpace(v.GetString("SINK"))),
		BatchSize:          batchSize,
		LoadMaxAttempts:    maxAttempts,
		KafkaBrokers:       parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaReportTopic:   v.GetString("KAFKA_REPORT_TOPIC"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		MQTTBroker:         v.GetString("MQTT_BROKER"),
		MQTTClientID:       v.GetString("MQTT_CLIENT_ID"),
		MQTTTopicPrefix:    strings.Trim(v.GetString("MQTT_TOPIC_PREFIX"), "/"),
		MQTTConnectTimeout: connectTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("invalid BATCH_SIZE %d: must be between 1 and %d", c.BatchSize, maxBatchSize)
	}
	if c.LoadMaxAttempts < 1 {
		return fmt.Errorf("invalid LOAD_MAX_ATTEMPTS %d: must be at least 1", c.LoadMaxAttempts)
	}

	switch c.Sink {
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	case SinkMQTT:
		if c.MQTTBroker == "" {
			return errors.New("MQTT_BROKER is required")
		}
		if c.MQTTTopicPrefix == "" {
			return errors.New("MQTT_TOPIC_PREFIX is required")
		}
	default:
		return fmt.Errorf("invalid SINK %q: must be one of %s, %s, %s", c.Sink, SinkKafka, SinkSQLite, SinkMQTT)
	}
	return nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// parseBrokers splits a comma-separated broker list, dropping blanks.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
