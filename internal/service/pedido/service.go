// Package pedido реализует операции над заказами: список, чтение, создание и смену estado.
package pedido

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
	"github.com/vladislavdragonenkov/pedidos/internal/metrics"
)

// ListLimit — жёсткий предел выдачи List; пагинации нет.
const ListLimit = 100

// CreateInput — данные нового заказа после декодирования запроса.
type CreateInput = domain.PedidoDraft

// CreateResult сообщает идентификатор и то, была ли запись действительно вставлена.
type CreateResult struct {
	ID       string
	Inserted bool
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher подключает публикацию событий заказа.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.PedidoMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service — прикладной слой над PedidoRepository.
// Состояния между запросами не держит; все вызовы можно выполнять конкурентно.
type Service struct {
	repo      domain.PedidoRepository
	publisher domain.EventPublisher
	metrics   *metrics.PedidoMetrics
	logger    *log.Entry
}

// NewService конструирует сервис. repo == nil означает деградированный режим:
// каждая операция возвращает domain.ErrStorageUnavailable.
func NewService(repo domain.PedidoRepository, options ...Option) *Service {
	s := &Service{repo: repo}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "pedido-service")
	}
	return s
}

// Available сообщает, подключено ли хранилище.
func (s *Service) Available() bool {
	return s.repo != nil
}

// List возвращает последние заказы: fecha DESC, hora DESC, не больше ListLimit.
func (s *Service) List(ctx context.Context) ([]domain.Pedido, error) {
	if !s.Available() {
		return nil, domain.ErrStorageUnavailable
	}

	pedidos, err := s.repo.List(ctx, ListLimit)
	if err != nil {
		return nil, s.storageFailure("list pedidos", err)
	}
	return pedidos, nil
}

// GetByID возвращает заказ или domain.ErrPedidoNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Pedido, error) {
	if !s.Available() {
		return domain.Pedido{}, domain.ErrStorageUnavailable
	}

	pedido, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPedidoNotFound) {
			return domain.Pedido{}, err
		}
		return domain.Pedido{}, s.storageFailure("get pedido", err)
	}
	return pedido, nil
}

// Create проверяет и сохраняет заказ. Повтор с существующим id ничего не меняет
// и возвращает Inserted=false без ошибки.
func (s *Service) Create(ctx context.Context, input CreateInput) (CreateResult, error) {
	pedido, err := input.Build()
	if err != nil {
		s.metrics.RecordValidationFailure()
		s.logger.WithError(err).WithField("pedido_id", input.ID).Debug("pedido rejected")
		return CreateResult{}, err
	}
	if !s.Available() {
		return CreateResult{}, domain.ErrStorageUnavailable
	}

	inserted, err := s.repo.Insert(ctx, pedido)
	if err != nil {
		return CreateResult{}, s.storageFailure("insert pedido", err)
	}

	logger := s.logger.WithField("pedido_id", pedido.ID)
	if !inserted {
		s.metrics.RecordDuplicate()
		logger.Info("pedido already exists, insert ignored")
		return CreateResult{ID: pedido.ID, Inserted: false}, nil
	}

	s.metrics.RecordCreated()
	logger.Info("pedido created")
	s.publish(ctx, domain.NewPedidoEvent(domain.EventPedidoCreated, pedido))

	return CreateResult{ID: pedido.ID, Inserted: true}, nil
}

// UpdateStatus меняет estado заказа и возвращает обновлённую запись.
// Допустим любой непустой estado; переходы не проверяются.
func (s *Service) UpdateStatus(ctx context.Context, id, estado string) (domain.Pedido, error) {
	if estado == "" {
		s.metrics.RecordValidationFailure()
		return domain.Pedido{}, domain.NewValidationError(domain.ErrEstadoRequired, "estado")
	}
	if !s.Available() {
		return domain.Pedido{}, domain.ErrStorageUnavailable
	}

	pedido, err := s.repo.UpdateEstado(ctx, id, estado)
	if err != nil {
		if errors.Is(err, domain.ErrPedidoNotFound) {
			return domain.Pedido{}, err
		}
		return domain.Pedido{}, s.storageFailure("update pedido estado", err)
	}

	s.metrics.RecordEstadoUpdated()
	s.logger.WithFields(log.Fields{
		"pedido_id": pedido.ID,
		"estado":    pedido.Estado,
	}).Info("pedido estado updated")
	s.publish(ctx, domain.NewPedidoEvent(domain.EventPedidoEstadoUpdated, pedido))

	return pedido, nil
}

func (s *Service) storageFailure(op string, err error) error {
	s.metrics.RecordStorageError(op)
	s.logger.WithError(err).WithField("op", op).Error("storage operation failed")
	return domain.WrapPersistence(op, err)
}

// publish отправляет событие, не влияя на результат операции.
func (s *Service) publish(ctx context.Context, event domain.PedidoEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.RecordPublishFailure()
		s.logger.WithError(err).WithFields(log.Fields{
			"pedido_id":  event.Pedido.ID,
			"event_type": event.Type,
		}).Warn("failed to publish pedido event")
	}
}
