package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SinkKafka, cfg.Sink)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.LoadMaxAttempts)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-reading-reports", cfg.KafkaReportTopic)
	assert.Equal(t, "data/readings.db", cfg.SQLitePath)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "weather-reading-service", cfg.MQTTClientID)
	assert.Equal(t, "stations", cfg.MQTTTopicPrefix)
	assert.Equal(t, 10*time.Second, cfg.MQTTConnectTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SINK", "mqtt")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("LOAD_MAX_ATTEMPTS", "5")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("SQLITE_PATH", "/tmp/custom.db")
	t.Setenv("MQTT_BROKER", "tcp://mqtt:1883")
	t.Setenv("MQTT_CLIENT_ID", "custom-client")
	t.Setenv("MQTT_TOPIC_PREFIX", "/weather/")
	t.Setenv("MQTT_CONNECT_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SinkMQTT, cfg.Sink)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5, cfg.LoadMaxAttempts)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.Equal(t, "/tmp/custom.db", cfg.SQLitePath)
	assert.Equal(t, "tcp://mqtt:1883", cfg.MQTTBroker)
	assert.Equal(t, "custom-client", cfg.MQTTClientID)
	assert.Equal(t, "weather", cfg.MQTTTopicPrefix)
	assert.Equal(t, 2*time.Second, cfg.MQTTConnectTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "sink: sqlite\nsqlite_path: reports.db\nbatch_size: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reading-service.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SinkSQLite, cfg.Sink)
	assert.Equal(t, "reports.db", cfg.SQLitePath)
	assert.Equal(t, 10, cfg.BatchSize)
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reading-service.yaml"), []byte("batch_size: 10\n"), 0o600))
	t.Setenv("BATCH_SIZE", "20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.BatchSize)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reading-service.yaml"), []byte("sink: [unclosed\n"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantVar string
	}{
		{"shutdown timeout not a duration", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"zero connect timeout", map[string]string{"MQTT_CONNECT_TIMEOUT": "0s"}, "MQTT_CONNECT_TIMEOUT"},
		{"batch size zero", map[string]string{"BATCH_SIZE": "0"}, "BATCH_SIZE"},
		{"batch size too large", map[string]string{"BATCH_SIZE": "9999"}, "BATCH_SIZE"},
		{"batch size not a number", map[string]string{"BATCH_SIZE": "12abc"}, "BATCH_SIZE"},
		{"max attempts zero", map[string]string{"LOAD_MAX_ATTEMPTS": "0"}, "LOAD_MAX_ATTEMPTS"},
		{"unknown sink", map[string]string{"SINK": "postgres"}, "SINK"},
		{"kafka without brokers", map[string]string{"KAFKA_BROKERS": " , "}, "KAFKA_BROKERS"},
		{"mqtt without prefix", map[string]string{"SINK": "mqtt", "MQTT_TOPIC_PREFIX": "/"}, "MQTT_TOPIC_PREFIX"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantVar)
		})
	}
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2"}, parseBrokers("a:1,b:2"))
	assert.Equal(t, []string{"a:1"}, parseBrokers(" a:1 ,,"))
	assert.Empty(t, parseBrokers(""))
}
