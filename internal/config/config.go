package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/venue-insights/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	ReportStoreMemory   = "memory"
	ReportStorePostgres = "postgres"

	TransportNetHTTP  = "nethttp"
	TransportFastHTTP = "fasthttp"
)

// Config stores runtime configuration for the API server and the CLI.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	LogLevel           logging.Level
	LogFormat          logging.Format
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
	SwaggerEnabled     bool

	StatsAPI StatsAPIConfig
	Engine   EngineConfig

	ReportStore    string
	ReportCacheTTL time.Duration
	DB             DBConfig

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

type StatsAPIConfig struct {
	BaseURL                 string
	Timeout                 time.Duration
	RateLimit               int
	MaxRetries              int
	BackoffInitial          time.Duration
	BackoffMax              time.Duration
	CacheTTL                time.Duration
	ExpensiveCacheTTL       time.Duration
	CacheJanitorInterval    time.Duration
	Transport               string
	CircuitEnabled          bool
	CircuitFailureThreshold int
	CircuitOpenTimeout      time.Duration
	CircuitHalfOpenMaxReq   int
}

type EngineConfig struct {
	Workers            int
	MaxCorrelatedGames int
	QueryTimeout       time.Duration
	SplitCodes         []string
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logFormat := logging.FormatJSON
	if appEnv == EnvDev {
		logFormat = logging.FormatConsole
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_FORMAT")); raw != "" {
		switch logging.Format(strings.ToLower(raw)) {
		case logging.FormatJSON, logging.FormatConsole:
			logFormat = logging.Format(strings.ToLower(raw))
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: valid values are json, console", raw)
		}
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        strings.TrimSpace(getEnv("SERVICE_NAME", "venue-insights")),
		ServiceVersion:     strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		LogLevel:           logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:          logFormat,
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReportStore:        strings.ToLower(strings.TrimSpace(getEnv("REPORT_STORE", ReportStoreMemory))),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PprofAddr:          strings.TrimSpace(getEnv("PPROF_ADDR", "127.0.0.1:6060")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.SwaggerEnabled, err = getEnvAsBool("SWAGGER_ENABLED", appEnv != EnvProd); err != nil {
		return Config{}, err
	}
	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout, err = getEnvAsDuration("APP_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.StatsAPI, err = loadStatsAPI(); err != nil {
		return Config{}, err
	}
	if cfg.Engine, err = loadEngine(); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout < cfg.Engine.QueryTimeout {
		return Config{}, fmt.Errorf("APP_WRITE_TIMEOUT (%s) must be >= ENGINE_QUERY_TIMEOUT (%s)", cfg.WriteTimeout, cfg.Engine.QueryTimeout)
	}

	switch cfg.ReportStore {
	case ReportStoreMemory, ReportStorePostgres:
	default:
		return Config{}, fmt.Errorf("invalid REPORT_STORE %q: valid values are %s, %s", cfg.ReportStore, ReportStoreMemory, ReportStorePostgres)
	}
	if cfg.ReportCacheTTL, err = getEnvAsDuration("REPORT_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.DB, err = loadDB(); err != nil {
		return Config{}, err
	}
	if cfg.ReportStore == ReportStorePostgres && cfg.DB.URL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when REPORT_STORE=postgres")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = getEnvAsBool("UPTRACE_LOGS_ENABLED", false); err != nil {
		return Config{}, err
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return cfg, nil
}

func loadStatsAPI() (StatsAPIConfig, error) {
	var (
		out StatsAPIConfig
		err error
	)
	out.BaseURL = strings.TrimRight(strings.TrimSpace(getEnv("STATSAPI_BASE_URL", "https://statsapi.mlb.com/api/v1")), "/")
	out.Transport = strings.ToLower(strings.TrimSpace(getEnv("STATSAPI_TRANSPORT", TransportNetHTTP)))
	switch out.Transport {
	case TransportNetHTTP, TransportFastHTTP:
	default:
		return StatsAPIConfig{}, fmt.Errorf("invalid STATSAPI_TRANSPORT %q: valid values are %s, %s", out.Transport, TransportNetHTTP, TransportFastHTTP)
	}

	if out.Timeout, err = getEnvAsDuration("STATSAPI_TIMEOUT", 30*time.Second); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.RateLimit, err = getEnvAsInt("STATSAPI_RATE_LIMIT", 60); err != nil {
		return StatsAPIConfig{}, fmt.Errorf("parse STATSAPI_RATE_LIMIT: %w", err)
	}
	if out.RateLimit < 1 {
		return StatsAPIConfig{}, fmt.Errorf("STATSAPI_RATE_LIMIT must be >= 1")
	}
	if out.MaxRetries, err = getEnvAsInt("STATSAPI_MAX_RETRIES", 3); err != nil {
		return StatsAPIConfig{}, fmt.Errorf("parse STATSAPI_MAX_RETRIES: %w", err)
	}
	if out.MaxRetries < 0 {
		return StatsAPIConfig{}, fmt.Errorf("STATSAPI_MAX_RETRIES must be >= 0")
	}
	if out.BackoffInitial, err = getEnvAsDuration("STATSAPI_BACKOFF_INITIAL", 500*time.Millisecond); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.BackoffMax, err = getEnvAsDuration("STATSAPI_BACKOFF_MAX", 8*time.Second); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.BackoffMax < out.BackoffInitial {
		return StatsAPIConfig{}, fmt.Errorf("STATSAPI_BACKOFF_MAX must be >= STATSAPI_BACKOFF_INITIAL")
	}
	if out.CacheTTL, err = getEnvAsDuration("STATSAPI_CACHE_TTL", 5*time.Minute); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.ExpensiveCacheTTL, err = getEnvAsDuration("STATSAPI_EXPENSIVE_CACHE_TTL", 30*time.Minute); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.CacheJanitorInterval, err = getEnvAsDuration("STATSAPI_CACHE_JANITOR_INTERVAL", time.Minute); err != nil {
		return StatsAPIConfig{}, err
	}

	if out.CircuitEnabled, err = getEnvAsBool("STATSAPI_CIRCUIT_ENABLED", true); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.CircuitFailureThreshold, err = getEnvAsInt("STATSAPI_CIRCUIT_FAILURE_THRESHOLD", 5); err != nil {
		return StatsAPIConfig{}, fmt.Errorf("parse STATSAPI_CIRCUIT_FAILURE_THRESHOLD: %w", err)
	}
	if out.CircuitFailureThreshold < 1 {
		return StatsAPIConfig{}, fmt.Errorf("STATSAPI_CIRCUIT_FAILURE_THRESHOLD must be >= 1")
	}
	if out.CircuitOpenTimeout, err = getEnvAsDuration("STATSAPI_CIRCUIT_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return StatsAPIConfig{}, err
	}
	if out.CircuitHalfOpenMaxReq, err = getEnvAsInt("STATSAPI_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return StatsAPIConfig{}, fmt.Errorf("parse STATSAPI_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if out.CircuitHalfOpenMaxReq < 1 {
		return StatsAPIConfig{}, fmt.Errorf("STATSAPI_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	return out, nil
}

func loadEngine() (EngineConfig, error) {
	var (
		out EngineConfig
		err error
	)
	if out.Workers, err = getEnvAsInt("ENGINE_WORKERS", 6); err != nil {
		return EngineConfig{}, fmt.Errorf("parse ENGINE_WORKERS: %w", err)
	}
	if out.Workers < 1 || out.Workers > 32 {
		return EngineConfig{}, fmt.Errorf("ENGINE_WORKERS must be between 1 and 32")
	}
	if out.MaxCorrelatedGames, err = getEnvAsInt("ENGINE_MAX_CORRELATED_GAMES", 20); err != nil {
		return EngineConfig{}, fmt.Errorf("parse ENGINE_MAX_CORRELATED_GAMES: %w", err)
	}
	if out.MaxCorrelatedGames < 1 {
		return EngineConfig{}, fmt.Errorf("ENGINE_MAX_CORRELATED_GAMES must be >= 1")
	}
	if out.QueryTimeout, err = getEnvAsDuration("ENGINE_QUERY_TIMEOUT", 60*time.Second); err != nil {
		return EngineConfig{}, err
	}
	// "-" disables situational splits
	raw := strings.TrimSpace(getEnv("ENGINE_SPLIT_CODES", "vl,vr,h,a,risp,r0,lc"))
	out.SplitCodes = []string{}
	if raw != "-" {
		out.SplitCodes = splitCSV(strings.ToLower(raw))
	}
	return out, nil
}

func loadDB() (DBConfig, error) {
	var (
		out DBConfig
		err error
	)
	out.URL = strings.TrimSpace(getEnv("DB_URL", ""))
	if out.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return DBConfig{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	if out.MaxIdleConns, err = getEnvAsInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return DBConfig{}, fmt.Errorf("parse DB_MAX_IDLE_CONNS: %w", err)
	}
	if out.MaxOpenConns < 1 || out.MaxIdleConns < 0 {
		return DBConfig{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 1 and DB_MAX_IDLE_CONNS >= 0")
	}
	if out.ConnMaxLifetime, err = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return DBConfig{}, err
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// getEnvAsDuration rejects non-positive durations.
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
