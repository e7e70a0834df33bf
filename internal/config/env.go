package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ferryhub/internal/providers/greenocean"
	"ferryhub/internal/providers/makruzz"
	"ferryhub/internal/providers/sealink"
	"ferryhub/internal/resilience"
)

type Env struct {
	AppAddr     string
	GinMode     string
	LogLevel    string
	CORSOrigins []string

	DBDSN string

	CacheTTL time.Duration
	Retry    resilience.RetryConfig

	Sealink    sealink.Config
	Makruzz    makruzz.Config
	GreenOcean greenocean.Config

	ProviderRatePerSecond float64

	TicketDir           string
	TicketPublicBaseURL string

	KafkaBrokers      []string
	KafkaBookingTopic string

	OTLPEndpoint string

	APIJWTSecret string
	APIKeyHash   string
}

// source reads a setting from the process environment first and from the
// optional config file second.
type source struct {
	file map[string]string
}

func (s source) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.file[key]); v != "" {
		return v
	}
	return def
}

func (s source) list(key string) []string {
	raw := s.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s source) int(key string, def int) (int, error) {
	raw := s.str(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func (s source) float(key string, def float64) (float64, error) {
	raw := s.str(key, "")
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative number, got %q", key, raw)
	}
	return f, nil
}

func (s source) bool(key string, def bool) (bool, error) {
	raw := s.str(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean, got %q", key, raw)
	}
	return b, nil
}

func (s source) seconds(key string, def int) (time.Duration, error) {
	n, err := s.int(key, def)
	return time.Duration(n) * time.Second, err
}

// readFile loads a flat KEY: value YAML file.
func readFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch vv := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(vv))
			for _, p := range vv {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(vv)
		}
	}
	return out, nil
}

// LoadEnv reads the service configuration. Values in the process
// environment override the file named by CONFIG_FILE.
func LoadEnv() (Env, error) {
	var s source
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Env{}, err
		}
		s.file = file
	}

	env := Env{
		AppAddr:             s.str("APP_ADDR", ":8080"),
		GinMode:             s.str("GIN_MODE", ""),
		LogLevel:            s.str("LOG_LEVEL", "info"),
		CORSOrigins:         s.list("CORS_ALLOWED_ORIGINS"),
		DBDSN:               s.str("DB_DSN", ""),
		TicketDir:           s.str("TICKET_DIR", "./storage/tickets"),
		TicketPublicBaseURL: s.str("TICKET_PUBLIC_BASE_URL", "http://localhost:8080/tickets"),
		KafkaBrokers:        s.list("KAFKA_BROKERS"),
		KafkaBookingTopic:   s.str("KAFKA_BOOKING_TOPIC", "ferry.bookings"),
		OTLPEndpoint:        s.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		APIJWTSecret:        s.str("API_JWT_SECRET", ""),
		APIKeyHash:          s.str("API_KEY_HASH", ""),
		Sealink: sealink.Config{
			BaseURL:  s.str("SEALINK_BASE_URL", ""),
			Username: s.str("SEALINK_USERNAME", ""),
			Token:    s.str("SEALINK_TOKEN", ""),
		},
		Makruzz: makruzz.Config{
			BaseURL:  s.str("MAKRUZZ_BASE_URL", ""),
			Username: s.str("MAKRUZZ_USERNAME", ""),
			Password: s.str("MAKRUZZ_PASSWORD", ""),
		},
		GreenOcean: greenocean.Config{
			BaseURL:    s.str("GREENOCEAN_BASE_URL", ""),
			PublicKey:  s.str("GREENOCEAN_PUBLIC_KEY", ""),
			PrivateKey: s.str("GREENOCEAN_PRIVATE_KEY", ""),
		},
	}

	var err error
	if env.CacheTTL, err = s.seconds("CACHE_TTL_SECONDS", 300); err != nil {
		return Env{}, err
	}
	attempts, err := s.int("RETRY_MAX_ATTEMPTS", resilience.DefaultMaxAttempts)
	if err != nil {
		return Env{}, err
	}
	delayMs, err := s.int("RETRY_INITIAL_DELAY_MS", 300)
	if err != nil {
		return Env{}, err
	}
	env.Retry = resilience.RetryConfig{MaxAttempts: attempts, InitialDelay: time.Duration(delayMs) * time.Millisecond}

	if env.Sealink.Timeout, err = s.seconds("SEALINK_TIMEOUT_SECONDS", 10); err != nil {
		return Env{}, err
	}
	if env.Makruzz.Timeout, err = s.seconds("MAKRUZZ_TIMEOUT_SECONDS", 12); err != nil {
		return Env{}, err
	}
	if env.GreenOcean.Timeout, err = s.seconds("GREENOCEAN_TIMEOUT_SECONDS", 12); err != nil {
		return Env{}, err
	}
	if env.GreenOcean.FetchLayouts, err = s.bool("GREENOCEAN_FETCH_LAYOUTS", true); err != nil {
		return Env{}, err
	}
	if env.ProviderRatePerSecond, err = s.float("PROVIDER_RATE_PER_SECOND", 5); err != nil {
		return Env{}, err
	}
	return env, nil
}
