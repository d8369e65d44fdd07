package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the pipeline worker.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	DBURL                   string
	DBDisablePreparedBinary bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers       []string
	KafkaTopics        []string
	KafkaConsumerGroup string
	KafkaDerivedTopic  string
	WorkerPoolSize     int

	RetryMaxAttempts    int
	RetryBaseBackoff    time.Duration
	RetryMaxBackoff     time.Duration
	AttemptTimeout      time.Duration
	RecomputeAttempts   int
	RecomputeBackoff    time.Duration
	LedgerProcessingTTL time.Duration
	LedgerRetention     time.Duration
	DeadLetterList      string

	CacheTableTTL time.Duration

	SportsAPIEnabled            bool
	SportsAPIBaseURL            string
	SportsAPITimeout            time.Duration
	SportsCircuitEnabled        bool
	SportsCircuitFailureCount   int
	SportsCircuitOpenTimeout    time.Duration
	SportsCircuitHalfOpenMaxReq int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	PprofEnabled bool
	PprofAddr    string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY: %w", err)
	}

	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	kafkaBrokers := splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092"))
	if len(kafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	kafkaTopics := splitCSV(getEnv("KAFKA_TOPICS", "sports.events"))
	if len(kafkaTopics) == 0 {
		return Config{}, fmt.Errorf("KAFKA_TOPICS is required")
	}

	workerPoolSize, err := getEnvAsInt("WORKER_POOL_SIZE", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse WORKER_POOL_SIZE: %w", err)
	}
	if workerPoolSize < 1 {
		return Config{}, fmt.Errorf("WORKER_POOL_SIZE must be >= 1")
	}

	retryMaxAttempts, err := getEnvAsInt("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse RETRY_MAX_ATTEMPTS: %w", err)
	}
	retryBaseBackoff, err := getEnvAsDuration("RETRY_BASE_BACKOFF", time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse RETRY_BASE_BACKOFF: %w", err)
	}
	retryMaxBackoff, err := getEnvAsDuration("RETRY_MAX_BACKOFF", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse RETRY_MAX_BACKOFF: %w", err)
	}
	attemptTimeout, err := getEnvAsDuration("ATTEMPT_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse ATTEMPT_TIMEOUT: %w", err)
	}
	recomputeAttempts, err := getEnvAsInt("RECOMPUTE_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECOMPUTE_MAX_ATTEMPTS: %w", err)
	}
	recomputeBackoff, err := getEnvAsDuration("RECOMPUTE_BASE_BACKOFF", 2*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECOMPUTE_BASE_BACKOFF: %w", err)
	}

	ledgerProcessingTTL, err := getEnvAsDuration("LEDGER_PROCESSING_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_PROCESSING_TTL: %w", err)
	}
	ledgerRetention, err := getEnvAsDuration("LEDGER_RETENTION", 30*24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_RETENTION: %w", err)
	}

	cacheTableTTL, err := getEnvAsDuration("CACHE_TABLE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TABLE_TTL: %w", err)
	}

	sportsAPIEnabled, err := strconv.ParseBool(getEnv("SPORTS_API_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_API_ENABLED: %w", err)
	}
	sportsAPIBaseURL := strings.TrimSpace(getEnv("SPORTS_API_BASE_URL", ""))
	if sportsAPIEnabled && sportsAPIBaseURL == "" {
		return Config{}, fmt.Errorf("SPORTS_API_BASE_URL is required when SPORTS_API_ENABLED=true")
	}
	sportsAPITimeout, err := getEnvAsDuration("SPORTS_API_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_API_TIMEOUT: %w", err)
	}
	sportsCircuitEnabled, err := strconv.ParseBool(getEnv("SPORTS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_CIRCUIT_ENABLED: %w", err)
	}
	sportsCircuitFailureCount, err := getEnvAsInt("SPORTS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	sportsCircuitOpenTimeout, err := getEnvAsDuration("SPORTS_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	sportsCircuitHalfOpenMaxReq, err := getEnvAsInt("SPORTS_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	serviceName := getEnv("SERVICE_NAME", "tournament-events")

	return Config{
		AppEnv:         appEnv,
		ServiceName:    serviceName,
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DBURL:                   dbURL,
		DBDisablePreparedBinary: dbDisablePreparedBinary,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		KafkaBrokers:       kafkaBrokers,
		KafkaTopics:        kafkaTopics,
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", serviceName),
		KafkaDerivedTopic:  getEnv("KAFKA_DERIVED_TOPIC", "sports.events"),
		WorkerPoolSize:     workerPoolSize,

		RetryMaxAttempts:    retryMaxAttempts,
		RetryBaseBackoff:    retryBaseBackoff,
		RetryMaxBackoff:     retryMaxBackoff,
		AttemptTimeout:      attemptTimeout,
		RecomputeAttempts:   recomputeAttempts,
		RecomputeBackoff:    recomputeBackoff,
		LedgerProcessingTTL: ledgerProcessingTTL,
		LedgerRetention:     ledgerRetention,
		DeadLetterList:      getEnv("DEAD_LETTER_LIST", "events:dead_letter"),

		CacheTableTTL: cacheTableTTL,

		SportsAPIEnabled:            sportsAPIEnabled,
		SportsAPIBaseURL:            sportsAPIBaseURL,
		SportsAPITimeout:            sportsAPITimeout,
		SportsCircuitEnabled:        sportsCircuitEnabled,
		SportsCircuitFailureCount:   sportsCircuitFailureCount,
		SportsCircuitOpenTimeout:    sportsCircuitOpenTimeout,
		SportsCircuitHalfOpenMaxReq: sportsCircuitHalfOpenMaxReq,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:     getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeUploadRate:    pyroscopeUploadRate,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
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
