package domain

import (
	"context"
	"time"
)

// EventType задаёт тип события жизненного цикла заказа.
type EventType string

const (
	// EventPedidoCreated — заказ впервые сохранён.
	EventPedidoCreated EventType = "pedido.created"
	// EventPedidoEstadoUpdated — у заказа изменился estado.
	EventPedidoEstadoUpdated EventType = "pedido.estado_updated"
)

// PedidoEvent — событие, которое сервис отдаёт наружу после успешной операции.
type PedidoEvent struct {
	Type       EventType
	Pedido     Pedido
	OccurredAt time.Time
}

// EventPublisher публикует события заказов во внешнюю систему.
type EventPublisher interface {
	Publish(ctx context.Context, event PedidoEvent) error
}

// NewPedidoEvent создаёт событие с текущим временем в UTC.
func NewPedidoEvent(eventType EventType, pedido Pedido) PedidoEvent {
	return PedidoEvent{
		Type:       eventType,
		Pedido:     pedido,
		OccurredAt: time.Now().UTC(),
	}
}
