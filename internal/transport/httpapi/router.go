// Package httpapi — REST API сервиса заказов поверх gorilla/mux.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
	"github.com/vladislavdragonenkov/pedidos/internal/metrics"
	"github.com/vladislavdragonenkov/pedidos/internal/service/pedido"
)

// PedidoService — операции над заказами, которые нужны API.
type PedidoService interface {
	List(ctx context.Context) ([]domain.Pedido, error)
	GetByID(ctx context.Context, id string) (domain.Pedido, error)
	Create(ctx context.Context, input pedido.CreateInput) (pedido.CreateResult, error)
	UpdateStatus(ctx context.Context, id, estado string) (domain.Pedido, error)
}

// Datastore — служебный доступ к хранилищу для /db и /setup.
// nil означает, что БД не подключена (memory или деградированный режим).
type Datastore interface {
	Probe(ctx context.Context) (int, error)
	EnsureSchema(ctx context.Context) error
}

// Options — зависимости обработчиков.
type Options struct {
	Service   PedidoService
	Datastore Datastore
	Metrics   *metrics.HTTPMetrics
	Logger    *log.Entry
}

// Handler обслуживает REST API.
type Handler struct {
	service   PedidoService
	datastore Datastore
	logger    *log.Entry
}

// NewRouter собирает маршруты и цепочку middleware:
// recover, request id, access log, метрики, CORS.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	h := &Handler{
		service:   opts.Service,
		datastore: opts.Datastore,
		logger:    logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", h.root).Methods(http.MethodGet)
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/db", h.dbProbe).Methods(http.MethodGet)
	router.HandleFunc("/setup", h.setup).Methods(http.MethodPost)
	router.HandleFunc("/pedidos", h.listPedidos).Methods(http.MethodGet)
	router.HandleFunc("/pedidos", h.createPedido).Methods(http.MethodPost)
	router.HandleFunc("/pedidos/{id}", h.getPedido).Methods(http.MethodGet)
	router.HandleFunc("/pedidos/{id}/estado", h.updateEstado).Methods(http.MethodPut)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFoundRoute)
	})

	var handler http.Handler = cors.AllowAll().Handler(router)
	handler = metricsMiddleware(router, opts.Metrics)(handler)
	handler = accessLogMiddleware(logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoverMiddleware(logger)(handler)
	return handler
}
