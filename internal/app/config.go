package app

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/pedidos/internal/messaging/kafka"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Переменные окружения сервиса.
const (
	envPort           = "PORT"
	envMetricsAddr    = "PEDIDOS_METRICS_ADDR"
	envGRPCHealthAddr = "PEDIDOS_GRPC_HEALTH_ADDR"
	envStorageDriver  = "STORAGE_DRIVER"
	envAutoSetup      = "PEDIDOS_AUTO_SETUP"
	envKafkaBrokers   = "KAFKA_BROKERS"
	envKafkaTopic     = "PEDIDOS_KAFKA_TOPIC"
	envLogLevel       = "LOG_LEVEL"
	envShutdownDelay  = "PEDIDOS_SHUTDOWN_TIMEOUT"
)

const defaultPort = 3000

// EnvLookup читает переменную окружения; сигнатура совпадает с os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr        string
	MetricsAddr     string
	GRPCHealthAddr  string
	StorageDriver   string
	AutoSetup       bool
	KafkaBrokers    string
	KafkaTopic      string
	LogLevel        string
	ShutdownTimeout time.Duration
	Database        DatabaseConfig
}

// DefaultConfig возвращает настройки по умолчанию: API на 0.0.0.0:3000, Postgres на localhost.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:        httpAddrForPort(defaultPort),
		MetricsAddr:     ":9090",
		StorageDriver:   StorageDriverPostgres,
		KafkaTopic:      kafka.TopicPedidoEvents,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		Database:        DefaultDatabaseConfig(),
	}
}

func httpAddrForPort(port int) string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
}

// ConfigFromEnv собирает Config из окружения. Некорректные значения не прерывают запуск:
// остаётся значение по умолчанию, а описание проблемы попадает в warnings.
func ConfigFromEnv(lookup EnvLookup) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	if v, ok := lookupTrimmed(lookup, envPort); ok {
		port, err := parseInt(v, func(p int) bool { return p > 0 && p <= 65535 }, "must be in 1..65535")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %d", envPort, err, defaultPort))
		} else {
			cfg.HTTPAddr = httpAddrForPort(port)
		}
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envGRPCHealthAddr); ok {
		cfg.GRPCHealthAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envAutoSetup); ok {
		enabled, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envAutoSetup, err))
		} else {
			cfg.AutoSetup = enabled
		}
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = v
	}
	if v, ok := lookupTrimmed(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	if v, ok := lookupTrimmed(lookup, envLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envShutdownDelay); ok {
		timeout, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envShutdownDelay, err))
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	db, dbWarnings := ResolveDatabase(lookup)
	cfg.Database = db
	warnings = append(warnings, dbWarnings...)

	return cfg, warnings
}

// lookupTrimmed возвращает значение без пробелов; пустое значение считается отсутствующим.
func lookupTrimmed(lookup EnvLookup, key string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on", "y":
		return true, nil
	case "0", "false", "no", "off", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

// isTruthy — мягкая проверка флага: всё, что не распознано как «да», считается «нет».
func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
