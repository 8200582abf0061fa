package app

import (
	"errors"
	"net"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// pedidosServiceName — имя сервиса в grpc.health.v1 (пустое имя тоже обслуживается).
const pedidosServiceName = "pedidos.v1.PedidoService"

// grpcHealthServer — служебный gRPC-листенер: health и reflection для оркестраторов и grpcurl.
type grpcHealthServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	logger   *log.Entry
}

func newGRPCHealthServer(addr string, registerer prometheus.Registerer, logger *log.Entry) (*grpcHealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	grpcMetrics := registerGRPCMetrics(registerer, logger)
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	return &grpcHealthServer{
		server:   server,
		health:   healthServer,
		listener: lis,
		logger:   logger,
	}, nil
}

// registerGRPCMetrics регистрирует метрики gRPC или переиспользует уже зарегистрированные.
func registerGRPCMetrics(registerer prometheus.Registerer, logger *log.Entry) *promgrpc.ServerMetrics {
	grpcMetrics := promgrpc.NewServerMetrics()
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if err := registerer.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("failed to register grpc metrics")
	}
	return grpcMetrics
}

// SetServing выставляет статус для общего имени и для сервиса заказов.
func (s *grpcHealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(pedidosServiceName, status)
}

func (s *grpcHealthServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *grpcHealthServer) Serve() error {
	s.logger.Infof("gRPC health слушает %s", s.Addr())
	err := s.server.Serve(s.listener)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop переводит статус в NOT_SERVING и останавливает сервер.
func (s *grpcHealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
