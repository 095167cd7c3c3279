package config

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/chepyr/tasks-api/tasks-service/store"
	"github.com/joho/godotenv"
)

const (
	defaultRateLimitPerMinute = 60
	minJWTSecretLength        = 32
)

type Config struct {
	ServerPort         string
	MaxRecords         int
	JWTSecret          string
	AllowedOrigins     []string
	TrustedProxies     []netip.Prefix
	RateLimitPerMinute int
}

// Load reads .env when it exists and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			log.Printf("%s not found, relying on environment variables", f)
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	if err := validateEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:     os.Getenv("SERVER_PORT_TASKS"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.MaxRecords, err = positiveInt("MAX_RECORDS", store.DefaultMaxRecords); err != nil {
		return nil, err
	}
	if cfg.TrustedProxies, err = parsePrefixes("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = positiveInt("RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateEnv() error {
	requiredEnvVars := []string{"SERVER_PORT_TASKS"}
	for _, env := range requiredEnvVars {
		if os.Getenv(env) == "" {
			return fmt.Errorf("environment variable %s must be set", env)
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" && len(secret) < minJWTSecretLength {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

func positiveInt(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("environment variable %s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

// parsePrefixes reads a comma separated list of IPs and CIDR ranges.
func parsePrefixes(name string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range splitList(os.Getenv(name)) {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("environment variable %s: invalid CIDR %q", name, item)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("environment variable %s: invalid IP %q", name, item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
