package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10 {
		t.Errorf("ShutdownTimeout = %d, want 10", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "lifelink.db" {
		t.Errorf("Path = %q, want lifelink.db", cfg.Database.Path)
	}
	if cfg.Kafka.Brokers != nil {
		t.Errorf("Brokers = %v, want nil", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "30")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := Load()
	if cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("ShutdownTimeout = %d, want 30", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	if got := getEnvInt("SHUTDOWN_TIMEOUT", 10); got != 10 {
		t.Errorf("getEnvInt = %d, want default 10", got)
	}
}
