package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "Defaults",
			env:  map[string]string{"SERVER_PORT_TASKS": "8081"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != "8081" || cfg.MaxRecords != 1000 || cfg.RateLimitPerMinute != 60 {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.JWTSecret != "" || cfg.AllowedOrigins != nil || cfg.TrustedProxies != nil {
					t.Errorf("expected no secret and no origins, got %+v", cfg)
				}
			},
		},
		{
			name: "All values",
			env: map[string]string{
				"SERVER_PORT_TASKS":     "9000",
				"MAX_RECORDS":           "10",
				"JWT_SECRET":            strings.Repeat("s", 32),
				"ALLOWED_ORIGINS":       "https://a.example, ,https://b.example",
				"RATE_LIMIT_PER_MINUTE": "5",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxRecords != 10 || cfg.RateLimitPerMinute != 5 {
					t.Errorf("unexpected limits: %+v", cfg)
				}
				if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
					t.Errorf("unexpected origins: %v", cfg.AllowedOrigins)
				}
			},
		},
		{
			name:    "Missing port",
			env:     map[string]string{},
			wantErr: "SERVER_PORT_TASKS",
		},
		{
			name:    "Short JWT secret",
			env:     map[string]string{"SERVER_PORT_TASKS": "8081", "JWT_SECRET": "short"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "Invalid max records",
			env:     map[string]string{"SERVER_PORT_TASKS": "8081", "MAX_RECORDS": "-1"},
			wantErr: "MAX_RECORDS",
		},
		{
			name: "Trusted proxies",
			env:  map[string]string{"SERVER_PORT_TASKS": "8081", "TRUSTED_PROXIES": "10.0.0.1, 192.168.1.7/24"},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.TrustedProxies) != 2 {
					t.Fatalf("unexpected proxies: %v", cfg.TrustedProxies)
				}
				if got := cfg.TrustedProxies[0].String(); got != "10.0.0.1/32" {
					t.Errorf("single IP parsed as %s", got)
				}
				if got := cfg.TrustedProxies[1].String(); got != "192.168.1.0/24" {
					t.Errorf("CIDR parsed as %s", got)
				}
			},
		},
		{
			name:    "Invalid trusted proxy",
			env:     map[string]string{"SERVER_PORT_TASKS": "8081", "TRUSTED_PROXIES": "proxy.internal"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "Invalid rate limit",
			env:     map[string]string{"SERVER_PORT_TASKS": "8081", "RATE_LIMIT_PER_MINUTE": "lots"},
			wantErr: "RATE_LIMIT_PER_MINUTE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"SERVER_PORT_TASKS", "MAX_RECORDS", "JWT_SECRET", "ALLOWED_ORIGINS", "TRUSTED_PROXIES", "RATE_LIMIT_PER_MINUTE"} {
				t.Setenv(name, tt.env[name])
			}

			cfg, err := FromEnv()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("SERVER_PORT_TASKS", "")
	t.Setenv("MAX_RECORDS", "")
	os.Unsetenv("SERVER_PORT_TASKS")
	os.Unsetenv("MAX_RECORDS")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SERVER_PORT_TASKS=7070\nMAX_RECORDS=3\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "7070" || cfg.MaxRecords != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("SERVER_PORT_TASKS", "6060")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "6060" {
		t.Fatalf("ServerPort=%q, want 6060", cfg.ServerPort)
	}
}
