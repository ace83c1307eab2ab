package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully valid configuration for testing.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "quotebook",
			Version:     "1.0.0",
			Environment: "test",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "127.0.0.1",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  10 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			Timeout: 5 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 200 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:   5,
				Timeout:       30 * time.Second,
				HalfOpenLimit: 1,
			},
			Transport: TransportConfig{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Services: ServicesConfig{
			Quote: ServiceEndpointConfig{
				BaseURL: "https://jsonplaceholder.typicode.com",
				Name:    "quote-source",
				Limit:   5,
			},
		},
		Storage: StorageConfig{Driver: StorageMemory},
		Session: SessionConfig{TTL: 30 * time.Minute, SweepInterval: time.Minute},
		Sync: SyncConfig{
			Enabled:      true,
			Source:       SourceSimulated,
			StartupDelay: 2 * time.Second,
			Interval:     30 * time.Second,
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_AppConfig(t *testing.T) {
	t.Run("missing name", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.Name = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.name is required")
	})

	t.Run("invalid environment", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.Environment = "staging"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.environment must be one of")
	})
}

func TestConfig_Validate_ServerConfig(t *testing.T) {
	t.Run("port range", func(t *testing.T) {
		tests := []struct {
			name    string
			port    int
			wantErr bool
		}{
			{"minimum valid port", 1, false},
			{"maximum valid port", 65535, false},
			{"zero port", 0, true},
			{"port too high", 65536, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := validConfig()
				cfg.Server.Port = tt.port

				err := cfg.Validate()
				if tt.wantErr {
					require.Error(t, err)
					assert.Contains(t, err.Error(), "server.port")
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("read timeout reported by koanf key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.ReadTimeout = 500 * time.Millisecond

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.read_timeout must be at least 1s")
	})

	t.Run("request timeout minimum", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.RequestTimeout = time.Millisecond

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.request_timeout")
	})
}

func TestConfig_Validate_LogConfig(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		t.Run("level "+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Log.Level = level

			assert.NoError(t, cfg.Validate())
		})
	}

	t.Run("invalid format", func(t *testing.T) {
		cfg := validConfig()
		cfg.Log.Format = "xml"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.format")
	})

	t.Run("file enabled requires path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Log.File.Enabled = true
		cfg.Log.File.Path = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.file.path is required when")
	})

	t.Run("file max size bound", func(t *testing.T) {
		cfg := validConfig()
		cfg.Log.File.Enabled = true
		cfg.Log.File.Path = "/tmp/quotebook.log"
		cfg.Log.File.MaxSizeMB = 1025

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.file.max_size")
	})
}

func TestConfig_Validate_TelemetryConfig(t *testing.T) {
	t.Run("enabled requires endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.ServiceName = "quotebook"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.endpoint")
	})

	t.Run("sampling rate bounds", func(t *testing.T) {
		tests := []struct {
			rate    float64
			wantErr bool
		}{
			{0.0, false},
			{1.0, false},
			{-0.1, true},
			{1.1, true},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("rate_%v", tt.rate), func(t *testing.T) {
				cfg := validConfig()
				cfg.Telemetry.SamplingRate = tt.rate

				err := cfg.Validate()
				if tt.wantErr {
					require.Error(t, err)
					assert.Contains(t, err.Error(), "telemetry.sampling_rate")
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})
}

func TestConfig_Validate_ClientConfig(t *testing.T) {
	t.Run("retry attempts bounds", func(t *testing.T) {
		for _, tt := range []struct {
			attempts int
			wantErr  bool
		}{{1, false}, {10, false}, {0, true}, {11, true}} {
			t.Run(fmt.Sprintf("attempts_%d", tt.attempts), func(t *testing.T) {
				cfg := validConfig()
				cfg.Client.Retry.MaxAttempts = tt.attempts

				err := cfg.Validate()
				if tt.wantErr {
					require.Error(t, err)
					assert.Contains(t, err.Error(), "client.retry.max_attempts")
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("circuit breaker timeout minimum", func(t *testing.T) {
		cfg := validConfig()
		cfg.Client.CircuitBreaker.Timeout = 500 * time.Millisecond

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client.circuit_breaker.timeout")
	})

	t.Run("service base url must be a URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Services.Quote.BaseURL = "not a url"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "services.quote.base_url must be a valid URL")
	})
}

func TestConfig_Validate_StorageConfig(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = "postgres"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver must be one of: sqlite memory")
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = StorageSQLite
		cfg.Storage.Path = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.path")
	})

	t.Run("memory does not require path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Path = ""

		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Validate_SyncConfig(t *testing.T) {
	t.Run("unknown source", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sync.Source = "ftp"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.source")
	})

	t.Run("enabled requires interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sync.Interval = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.interval")
	})

	t.Run("disabled ignores interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sync.Enabled = false
		cfg.Sync.Interval = 0

		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Environment: "invalid"},
		Server: ServerConfig{Port: -1},
	}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "app.name")
	assert.Contains(t, errStr, "app.version")
	assert.Contains(t, errStr, "storage")
}

func TestFormatFieldPath(t *testing.T) {
	tests := []struct {
		namespace string
		expected  string
	}{
		{"Config.server.port", "server.port"},
		{"Config.client.retry.max_attempts", "client.retry.max_attempts"},
		{"Config", "Config"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFieldPath(tt.namespace))
		})
	}
}
