package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Port:           "8080",
		DefaultMonth:   "2017-03",
		MonthCacheSize: 64,
		MonthCacheTTL:  10 * time.Minute,
		RateLimitRPS:   5,
		RateLimitBurst: 30,
		LogLevel:       "info",
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "malformed default month",
			mutate:      func(c *Config) { c.DefaultMonth = "march-2017" },
			wantErr:     true,
			errorString: "invalid default month 'march-2017'",
		},
		{
			name:        "default month out of range",
			mutate:      func(c *Config) { c.DefaultMonth = "2017-13" },
			wantErr:     true,
			errorString: "invalid default month '2017-13'",
		},
		{
			name:        "cache size too small",
			mutate:      func(c *Config) { c.MonthCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid month cache size 0",
		},
		{
			name:        "cache TTL too small",
			mutate:      func(c *Config) { c.MonthCacheTTL = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid month cache TTL",
		},
		{
			name:        "cache TTL too large",
			mutate:      func(c *Config) { c.MonthCacheTTL = 48 * time.Hour },
			wantErr:     true,
			errorString: "invalid month cache TTL",
		},
		{
			name:        "rate limit rps too small",
			mutate:      func(c *Config) { c.RateLimitRPS = 0; c.RateLimitBurst = 0 },
			wantErr:     true,
			errorString: "invalid rate limit rps 0",
		},
		{
			name:        "burst smaller than rps",
			mutate:      func(c *Config) { c.RateLimitRPS = 10; c.RateLimitBurst = 5 },
			wantErr:     true,
			errorString: "invalid rate limit burst 5",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want substring %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.in}
		got, err := cfg.SlogLevel()
		if (err != nil) != tt.wantErr {
			t.Fatalf("SlogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalVars := map[string]string{
		"PORT":             os.Getenv("PORT"),
		"DEFAULT_MONTH":    os.Getenv("DEFAULT_MONTH"),
		"MONTH_CACHE_SIZE": os.Getenv("MONTH_CACHE_SIZE"),
		"MONTH_CACHE_TTL":  os.Getenv("MONTH_CACHE_TTL"),
		"RATE_LIMIT_RPS":   os.Getenv("RATE_LIMIT_RPS"),
		"RATE_LIMIT_BURST": os.Getenv("RATE_LIMIT_BURST"),
		"LOG_LEVEL":        os.Getenv("LOG_LEVEL"),
	}

	// Clean environment
	for key := range originalVars {
		os.Unsetenv(key)
	}

	// Restore env vars at end of test
	defer func() {
		for key, value := range originalVars {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8080" {
			t.Errorf("Load() Port = %v, want 8080", cfg.Port)
		}
		if cfg.DefaultMonth != "2017-03" {
			t.Errorf("Load() DefaultMonth = %v, want 2017-03", cfg.DefaultMonth)
		}
		if cfg.MonthCacheSize != 64 {
			t.Errorf("Load() MonthCacheSize = %v, want 64", cfg.MonthCacheSize)
		}
		if cfg.MonthCacheTTL != 10*time.Minute {
			t.Errorf("Load() MonthCacheTTL = %v, want 10m", cfg.MonthCacheTTL)
		}
		if cfg.RateLimitRPS != 5 {
			t.Errorf("Load() RateLimitRPS = %v, want 5", cfg.RateLimitRPS)
		}
		if cfg.RateLimitBurst != 30 {
			t.Errorf("Load() RateLimitBurst = %v, want 30", cfg.RateLimitBurst)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		os.Setenv("PORT", "9090")
		os.Setenv("DEFAULT_MONTH", "2021-12")
		os.Setenv("MONTH_CACHE_SIZE", "128")
		os.Setenv("MONTH_CACHE_TTL", "45s")
		os.Setenv("LOG_LEVEL", "debug")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DefaultMonth != "2021-12" {
			t.Errorf("Load() DefaultMonth = %v, want 2021-12", cfg.DefaultMonth)
		}
		if cfg.MonthCacheSize != 128 {
			t.Errorf("Load() MonthCacheSize = %v, want 128", cfg.MonthCacheSize)
		}
		if cfg.MonthCacheTTL != 45*time.Second {
			t.Errorf("Load() MonthCacheTTL = %v, want 45s", cfg.MonthCacheTTL)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		os.Setenv("MONTH_CACHE_SIZE", "invalid")
		os.Setenv("MONTH_CACHE_TTL", "invalid")

		cfg := Load()

		if cfg.MonthCacheSize != 64 {
			t.Errorf("Load() MonthCacheSize = %v, want 64 (default for invalid input)", cfg.MonthCacheSize)
		}
		if cfg.MonthCacheTTL != 10*time.Minute {
			t.Errorf("Load() MonthCacheTTL = %v, want 10m (default for invalid input)", cfg.MonthCacheTTL)
		}
	})
}

// Helper function to check if string contains substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || func() bool {
		for i := 0; i <= len(s)-len(substr); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}())
}
