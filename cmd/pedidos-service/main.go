package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/app"
	"github.com/vladislavdragonenkov/pedidos/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
// Нераспознанный уровень возвращается ошибкой, уровень остаётся info.
func setupLogger(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	if level == "" {
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(parsed)
	return nil
}

func main() {
	cfg, warnings := app.ConfigFromEnv(os.LookupEnv)
	if err := setupLogger(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("LOG_LEVEL не распознан, используем info")
	}
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":        cfg.HTTPAddr,
		"metrics_addr":     cfg.MetricsAddr,
		"grpc_health_addr": cfg.GRPCHealthAddr,
		"storage_driver":   cfg.StorageDriver,
		"kafka_enabled":    cfg.KafkaBrokers != "",
		"version":          version.String(),
	}).Info("запускаем pedidos-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("pedidos-service остановлен")
}
