// Package app собирает сервис заказов: хранилище, Kafka, HTTP API, метрики и gRPC health.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/pedidos/internal/health"
	"github.com/vladislavdragonenkov/pedidos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pedidos/internal/metrics"
	"github.com/vladislavdragonenkov/pedidos/internal/service/pedido"
	"github.com/vladislavdragonenkov/pedidos/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/pedidos/internal/version"
)

var errKafkaUnavailable = errors.New("kafka producer is not initialized")

// Run запускает сервис и блокируется до отмены ctx или фатальной ошибки листенера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	serviceOptions := []pedido.Option{
		pedido.WithMetrics(metrics.NewPedidoMetrics()),
		pedido.WithLogger(logger.WithField("layer", "service")),
	}

	// Kafka опциональна: без брокеров события просто не публикуются.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)
	if kafkaProducer != nil {
		serviceOptions = append(serviceOptions, pedido.WithPublisher(kafka.NewEventPublisher(kafkaProducer, cfg.KafkaTopic)))
	}

	service := pedido.NewService(deps.repo, serviceOptions...)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if len(splitBrokers(cfg.KafkaBrokers)) > 0 {
		healthHandler.RegisterChecker("kafka", healthcheck.NewOptionalChecker("kafka", func(context.Context) error {
			if kafkaProducer == nil {
				return errKafkaUnavailable
			}
			return nil
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiHandler := httpapi.NewRouter(httpapi.Options{
		Service:   service,
		Datastore: deps.datastore,
		Metrics:   metrics.NewHTTPMetrics(),
		Logger:    logger.WithField("layer", "http"),
	})
	apiListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}
	apiSrv := newAPIServer(apiHandler)

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("degraded", deps.degraded).Infof("API pedidos corriendo en %s", apiListener.Addr())
		if err := apiSrv.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv *grpcHealthServer
	if cfg.GRPCHealthAddr != "" {
		grpcSrv, err = newGRPCHealthServer(cfg.GRPCHealthAddr, prometheus.DefaultRegisterer, logger.WithField("layer", "grpc"))
		if err != nil {
			shutdownServers(apiSrv, metricsSrv, nil, cfg.ShutdownTimeout, logger)
			return err
		}
		grpcSrv.SetServing(!deps.degraded)
		go func() {
			if err := grpcSrv.Serve(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		shutdownServers(apiSrv, metricsSrv, grpcSrv, cfg.ShutdownTimeout, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownServers(apiSrv, metricsSrv, grpcSrv, cfg.ShutdownTimeout, logger)
		return err
	}
}

func newAPIServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

func shutdownServers(apiSrv, metricsSrv *http.Server, grpcSrv *grpcHealthServer, timeout time.Duration, logger *log.Entry) {
	if grpcSrv != nil {
		stopped := make(chan struct{})
		go func() {
			grpcSrv.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем gRPC")
			grpcSrv.server.Stop()
		}
	}
	shutdownHTTPWithTimeout(apiSrv, timeout, logger)
	shutdownHTTP(metricsSrv, logger)
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	shutdownHTTPWithTimeout(srv, 5*time.Second, logger)
}

func shutdownHTTPWithTimeout(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
