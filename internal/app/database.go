package app

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Переменные окружения подключения к PostgreSQL.
const (
	envDatabaseURL   = "DATABASE_URL"
	envDBHost        = "DB_HOST"
	envDBPort        = "DB_PORT"
	envDBName        = "DB_NAME"
	envDBUser        = "DB_USER"
	envDBPassword    = "DB_PASSWORD"
	envDBSSL         = "DB_SSL"
	envDBForceLocal  = "DB_FORCE_LOCAL"
	envDBForceRemote = "DB_FORCE_REMOTE"
	envAppEnv        = "APP_ENV"
	envNodeEnv       = "NODE_ENV"
)

const (
	defaultDBHost = "localhost"
	defaultDBPort = 5432

	sslModeRequire = "require"
	sslModeDisable = "disable"
)

// DatabaseConfig — параметры подключения к PostgreSQL, вычисленные из окружения.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	// SSL без проверки сертификата (sslmode=require).
	SSL bool
	// Remote — только метка для логов; настройки подключения от неё не зависят.
	Remote      bool
	Environment string
}

// DefaultDatabaseConfig — локальная база без SSL.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host: defaultDBHost,
		Port: defaultDBPort,
	}
}

// ResolveDatabase вычисляет параметры подключения из окружения. Функция чистая:
// читает только через lookup и ничего не подключает.
//
// Правила:
//   - удалённая база обнаружена, если задан DATABASE_URL или DB_HOST не локальный;
//   - Remote = DB_FORCE_REMOTE || (!DB_FORCE_LOCAL && окружение development && база удалённая);
//   - SSL берётся из DB_SSL, если он задан, иначе включается для DATABASE_URL с нелокальным DB_HOST.
func ResolveDatabase(lookup EnvLookup) (DatabaseConfig, []string) {
	cfg := DefaultDatabaseConfig()
	var warnings []string

	rawHost, hasHost := lookupTrimmed(lookup, envDBHost)
	if hasHost {
		cfg.Host = rawHost
	}
	if v, ok := lookupTrimmed(lookup, envDBPort); ok {
		port, err := parseInt(v, func(p int) bool { return p > 0 && p <= 65535 }, "must be in 1..65535")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %d", envDBPort, err, defaultDBPort))
		} else {
			cfg.Port = port
		}
	}
	cfg.URL, _ = lookupTrimmed(lookup, envDatabaseURL)
	cfg.Name, _ = lookupTrimmed(lookup, envDBName)
	cfg.User, _ = lookupTrimmed(lookup, envDBUser)
	if lookup != nil {
		// Пароль не обрезается: пробелы могут быть его частью.
		cfg.Password, _ = lookup(envDBPassword)
	}

	env, ok := lookupTrimmed(lookup, envAppEnv)
	if !ok {
		env, _ = lookupTrimmed(lookup, envNodeEnv)
	}
	cfg.Environment = strings.ToLower(env)

	forceLocal := isTruthy(valueOf(lookup, envDBForceLocal))
	forceRemote := isTruthy(valueOf(lookup, envDBForceRemote))
	hasURL := cfg.URL != ""
	detectedRemote := hasURL || (hasHost && !isLocalHost(rawHost))
	cfg.Remote = forceRemote || (!forceLocal && cfg.Environment == "development" && detectedRemote)

	if v, ok := lookupTrimmed(lookup, envDBSSL); ok {
		cfg.SSL = isTruthy(v)
	} else {
		cfg.SSL = hasURL && !isLocalHost(rawHost)
	}

	return cfg, warnings
}

func valueOf(lookup EnvLookup, key string) string {
	v, _ := lookupTrimmed(lookup, key)
	return v
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1":
		return true
	default:
		return false
	}
}

func (c DatabaseConfig) sslMode() string {
	if c.SSL {
		return sslModeRequire
	}
	return sslModeDisable
}

// DSN возвращает строку подключения для pgx. DATABASE_URL имеет приоритет;
// sslmode дописывается, только если в нём не указан явно.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return withSSLMode(c.URL, c.sslMode())
	}

	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	host := c.Host
	if host == "" {
		host = defaultDBHost
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: url.Values{"sslmode": []string{c.sslMode()}}.Encode(),
	}
	if c.Name != "" {
		u.Path = "/" + c.Name
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	return u.String()
}

func withSSLMode(raw, mode string) string {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		query := u.Query()
		if query.Get("sslmode") == "" {
			query.Set("sslmode", mode)
			u.RawQuery = query.Encode()
		}
		return u.String()
	}
	// Строка вида "host=... user=...".
	if strings.Contains(raw, "sslmode=") {
		return raw
	}
	return raw + " sslmode=" + mode
}

// Target — метка режима подключения для логов.
func (c DatabaseConfig) Target() string {
	if c.Remote {
		return "remote"
	}
	return "local"
}

// Redacted возвращает поля для логирования без пароля.
func (c DatabaseConfig) Redacted() log.Fields {
	fields := log.Fields{
		"host":               c.Host,
		"port":               c.Port,
		"database":           c.Name,
		"user":               c.User,
		"using_database_url": c.URL != "",
		"ssl":                c.SSL,
		"target":             c.Target(),
	}
	if c.URL == "" {
		return fields
	}
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		fields["host"] = u.Hostname()
		if p, err := strconv.Atoi(u.Port()); err == nil {
			fields["port"] = p
		}
		fields["database"] = strings.TrimPrefix(u.Path, "/")
		fields["user"] = u.User.Username()
	}
	return fields
}
