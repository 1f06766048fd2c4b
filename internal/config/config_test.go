package config

import (
	"strings"
	"testing"
)

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "qdrant", Addrs: []string{"localhost:6333"}},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}

	expected := `database.driver must be valkey, redis or memory, got "qdrant"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	for _, driver := range []string{"valkey", "redis"} {
		t.Run(driver, func(t *testing.T) {
			cfg := Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Driver: driver},
			}
			cfg.ApplyDefaults()

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error for missing addrs")
			}
		})
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Search:   SearchConfig{DefaultLimit: 50, MaxLimit: 20},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default_limit exceeds max_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Database.KeyPrefix != "roomfinder:" {
		t.Errorf("expected KeyPrefix='roomfinder:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.OverfetchFactor != 10 {
		t.Errorf("expected OverfetchFactor=10, got %d", cfg.Search.OverfetchFactor)
	}
	if cfg.Search.HistoryCapacity != 1000 {
		t.Errorf("expected HistoryCapacity=1000, got %d", cfg.Search.HistoryCapacity)
	}
	if cfg.Search.SemanticThreshold != 0.7 {
		t.Errorf("expected SemanticThreshold=0.7, got %g", cfg.Search.SemanticThreshold)
	}
	if cfg.Search.HistoryThreshold != 0.6 {
		t.Errorf("expected HistoryThreshold=0.6, got %g", cfg.Search.HistoryThreshold)
	}
	if cfg.Search.FlatFallback == nil || !*cfg.Search.FlatFallback {
		t.Error("expected FlatFallback to default to true")
	}
	if cfg.Search.LearningEnabled == nil || !*cfg.Search.LearningEnabled {
		t.Error("expected LearningEnabled to default to true")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{KeyPrefix: "custom:"},
		Search:   SearchConfig{OverfetchFactor: 5, FlatFallback: &off},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Search.OverfetchFactor != 5 {
		t.Errorf("expected OverfetchFactor=5, got %d", cfg.Search.OverfetchFactor)
	}
	if *cfg.Search.FlatFallback {
		t.Error("explicit flat_fallback=false must survive defaults")
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("ROOMFINDER_TEST_PORT", "9090")

	raw := `
http:
  port: ${ROOMFINDER_TEST_PORT}
database:
  driver: ${ROOMFINDER_TEST_DRIVER:-memory}
search:
  timeout_ms: 2500
`
	cfg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected default driver memory, got %q", cfg.Database.Driver)
	}
	if got := cfg.Search.Timeout().Milliseconds(); got != 2500 {
		t.Errorf("expected timeout 2500ms, got %d", got)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("http: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestClassifierConfig_AssistantEnabled(t *testing.T) {
	tests := []struct {
		cfg  ClassifierConfig
		want bool
	}{
		{ClassifierConfig{}, false},
		{ClassifierConfig{Enabled: true}, false},
		{ClassifierConfig{EnhanceQueries: true}, true},
		{ClassifierConfig{CompleteQueries: true}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.AssistantEnabled(); got != tt.want {
			t.Errorf("AssistantEnabled(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
