package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
)

// TopicPedidoEvents — topic по умолчанию для событий заказов.
const TopicPedidoEvents = "pedidos.events"

// HeaderEventType дублирует тип события в заголовке, чтобы потребители могли
// фильтровать сообщения без разбора тела.
const HeaderEventType = "x-event-type"

// PedidoPayload — снимок заказа в теле события.
type PedidoPayload struct {
	ID        string       `json:"id"`
	Fecha     domain.Fecha `json:"fecha"`
	Hora      domain.Hora  `json:"hora"`
	Telefono  string       `json:"telefono"`
	Nombre    string       `json:"nombre"`
	Direccion *string      `json:"direccion"`
	Modalidad string       `json:"modalidad"`
	Productos string       `json:"productos"`
	Estado    *string      `json:"estado"`
}

// PedidoEventMessage — формат сообщения в Kafka.
type PedidoEventMessage struct {
	EventID    string        `json:"event_id"`
	EventType  string        `json:"event_type"`
	PedidoID   string        `json:"pedido_id"`
	Pedido     PedidoPayload `json:"pedido"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewPedidoEventMessage переводит доменное событие в формат сообщения.
func NewPedidoEventMessage(event domain.PedidoEvent) PedidoEventMessage {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	p := event.Pedido
	return PedidoEventMessage{
		EventID:   uuid.NewString(),
		EventType: string(event.Type),
		PedidoID:  p.ID,
		Pedido: PedidoPayload{
			ID:        p.ID,
			Fecha:     p.Fecha,
			Hora:      p.Hora,
			Telefono:  p.Telefono,
			Nombre:    p.Nombre,
			Direccion: optional(p.Direccion),
			Modalidad: p.Modalidad,
			Productos: p.Productos,
			Estado:    optional(p.Estado),
		},
		OccurredAt: occurredAt,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
