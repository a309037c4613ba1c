// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, speech provider
// credentials, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "voice-order-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SpeechConfig defines the external speech provider settings. When Enabled is
// false the service runs text-only (useful for local development and tests);
// when true, all three credentials must be present.
type SpeechConfig struct {
	Enabled           bool          // SPEECH_ENABLED
	OpenAIAPIKey      string        // OPENAI_API_KEY (Whisper transcription)
	ElevenLabsAPIKey  string        // ELEVENLABS_API_KEY (TTS)
	ElevenLabsVoiceID string        // ELEVENLABS_VOICE_ID
	MaxFailures       int           // SPEECH_BREAKER_MAX_FAILURES (consecutive, trips circuit)
	OpenTimeout       time.Duration // SPEECH_BREAKER_OPEN_TIMEOUT
	CallTimeout       time.Duration // SPEECH_CALL_TIMEOUT (per provider call)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 30s (audio uploads take a while)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath           string // SQLite path
	TransLogPath     string // NDJSON conversation log path
	AudioDir         string // directory for synthesized reply audio
	OrderETA         string // preparation estimate quoted with each order
	MaxOrderItems    int    // per-order item cap (0 = no cap)
	MaxUploadBytes   int64  // request body cap, sized for audio uploads
	FallbackLanguage string // reply language when detection is unsupported

	// Speech providers
	Speech SpeechConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// App
		DBPath:           getenv("DB_PATH", "voiceorders.db"),
		TransLogPath:     getenv("CONVERSATION_LOG_PATH", "conversation_log.json"),
		AudioDir:         getenv("AUDIO_DIR", "audio"),
		OrderETA:         getenv("ORDER_ETA", "15-20 minutes"),
		MaxOrderItems:    getint("MAX_ORDER_ITEMS", 50),
		MaxUploadBytes:   int64(getint("MAX_UPLOAD_BYTES", 10<<20)),
		FallbackLanguage: strings.ToLower(getenv("FALLBACK_LANGUAGE", "ar")),

		// Speech providers
		Speech: SpeechConfig{
			Enabled:           getbool("SPEECH_ENABLED", true),
			OpenAIAPIKey:      getenv("OPENAI_API_KEY", ""),
			ElevenLabsAPIKey:  getenv("ELEVENLABS_API_KEY", ""),
			ElevenLabsVoiceID: getenv("ELEVENLABS_VOICE_ID", ""),
			MaxFailures:       getint("SPEECH_BREAKER_MAX_FAILURES", 3),
			OpenTimeout:       getdur("SPEECH_BREAKER_OPEN_TIMEOUT", 30*time.Second),
			CallTimeout:       getdur("SPEECH_CALL_TIMEOUT", 20*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "voice-order-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.TransLogPath) == "" {
		return cfg, errors.New("CONVERSATION_LOG_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.AudioDir) == "" {
		return cfg, errors.New("AUDIO_DIR must not be empty")
	}
	if strings.TrimSpace(cfg.OrderETA) == "" {
		return cfg, errors.New("ORDER_ETA must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	switch cfg.FallbackLanguage {
	case "ar", "en", "tr":
	default:
		return cfg, errors.New("FALLBACK_LANGUAGE must be one of: ar, en, tr")
	}
	if cfg.Speech.Enabled {
		if strings.TrimSpace(cfg.Speech.OpenAIAPIKey) == "" {
			return cfg, errors.New("OPENAI_API_KEY is required when SPEECH_ENABLED=true")
		}
		if strings.TrimSpace(cfg.Speech.ElevenLabsAPIKey) == "" {
			return cfg, errors.New("ELEVENLABS_API_KEY is required when SPEECH_ENABLED=true")
		}
		if strings.TrimSpace(cfg.Speech.ElevenLabsVoiceID) == "" {
			return cfg, errors.New("ELEVENLABS_VOICE_ID is required when SPEECH_ENABLED=true")
		}
	}
	if cfg.Speech.MaxFailures < 1 {
		return cfg, errors.New("SPEECH_BREAKER_MAX_FAILURES must be >= 1")
	}
	if cfg.Speech.OpenTimeout <= 0 || cfg.Speech.CallTimeout <= 0 {
		return cfg, errors.New("speech timeouts must be positive durations")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
