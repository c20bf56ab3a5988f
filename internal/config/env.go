package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// OCRConfig selects the Tesseract models and layout analysis.
type OCRConfig struct {
	Languages      string // Tesseract syntax, e.g. "fra+eng"
	PageSegMode    int
	TessdataPrefix string
}

// RenderConfig controls PDF rasterization.
type RenderConfig struct {
	DPI             int
	MaxPagesPerFile int // 0 = unlimited
}

// WebConfig defines the HTTP UI.
type WebConfig struct {
	Port            string
	Username        string
	Password        string
	MaxUploadMB     int
	MaxConcurrent   int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DefaultTypes    []string
}

// CacheConfig selects where recognized page text is remembered.
type CacheConfig struct {
	RedisURL      string // empty = in-process cache
	TTL           time.Duration
	MemoryEntries int // 0 disables the in-process cache
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	OCR     OCRConfig
	Render  RenderConfig
	Web     WebConfig
	Cache   CacheConfig
	Metrics MetricsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/docfinder.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_docfinder",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.OCR = OCRConfig{
		Languages:      getEnv("OCR_LANGUAGES", "fra+eng"),
		PageSegMode:    parseInt(getEnv("OCR_PSM", "6"), 6),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
	}

	cfg.Render = RenderConfig{
		DPI:             parseInt(getEnv("RENDER_DPI", "200"), 200),
		MaxPagesPerFile: parseInt(getEnv("MAX_PAGES_PER_FILE", "0"), 0),
	}
	if cfg.Render.DPI <= 0 {
		cfg.Render.DPI = 200
	}

	cfg.Web = WebConfig{
		Port:            getEnv("PORT", "8080"),
		Username:        getEnv("WEB_USERNAME", ""),
		Password:        getEnv("WEB_PASSWORD", ""),
		MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64),
		MaxConcurrent:   parseInt(getEnv("MAX_CONCURRENT_SCANS", "2"), 2),
		RequestTimeout:  parseDuration(getEnv("REQUEST_TIMEOUT", "10m"), 10*time.Minute),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"), 15*time.Second),
		DefaultTypes:    parseList(getEnv("DEFAULT_TYPES", "identity_card,passport,residence_permit")),
	}

	cfg.Cache = CacheConfig{
		RedisURL:      getEnv("REDIS_URL", ""),
		TTL:           parseDuration(getEnv("OCR_CACHE_TTL", "24h"), 24*time.Hour),
		MemoryEntries: parseInt(getEnv("OCR_CACHE_ENTRIES", "256"), 256),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: parseBool(getEnv("METRICS_ENABLED", "true")),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
