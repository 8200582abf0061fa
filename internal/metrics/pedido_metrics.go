package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PedidoMetrics содержит счётчики операций над заказами.
// Все методы безопасны для nil-получателя, чтобы метрики можно было не подключать.
type PedidoMetrics struct {
	created            prometheus.Counter
	duplicates         prometheus.Counter
	estadoUpdates      prometheus.Counter
	validationFailures prometheus.Counter
	publishFailures    prometheus.Counter
	storageErrors      *prometheus.CounterVec
}

// NewPedidoMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewPedidoMetrics() *PedidoMetrics {
	return NewPedidoMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPedidoMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewPedidoMetricsWithRegisterer(registerer prometheus.Registerer) *PedidoMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PedidoMetrics{
		created: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedidos_created_total",
			Help: "Total number of pedidos inserted",
		}),
		duplicates: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedidos_duplicates_total",
			Help: "Total number of create requests ignored because the id already existed",
		}),
		estadoUpdates: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedidos_estado_updates_total",
			Help: "Total number of successful estado updates",
		}),
		validationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedidos_validation_failures_total",
			Help: "Total number of requests rejected by validation",
		}),
		publishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedidos_events_publish_failures_total",
			Help: "Total number of pedido events that could not be published",
		}),
		storageErrors: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pedidos_storage_errors_total",
			Help: "Total number of datastore failures grouped by operation",
		}, []string{"op"}),
	}
}

// RecordCreated увеличивает счётчик вставленных заказов.
func (m *PedidoMetrics) RecordCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// RecordDuplicate увеличивает счётчик проигнорированных повторов.
func (m *PedidoMetrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

// RecordEstadoUpdated увеличивает счётчик смен estado.
func (m *PedidoMetrics) RecordEstadoUpdated() {
	if m == nil {
		return
	}
	m.estadoUpdates.Inc()
}

// RecordValidationFailure увеличивает счётчик отклонённых запросов.
func (m *PedidoMetrics) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// RecordPublishFailure увеличивает счётчик неотправленных событий.
func (m *PedidoMetrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// RecordStorageError увеличивает счётчик ошибок хранилища для операции op.
func (m *PedidoMetrics) RecordStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}
