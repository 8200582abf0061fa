package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
)

// EventPublisher публикует события заказов в заданный Kafka topic.
// Ключ сообщения — id заказа, поэтому события одного заказа попадают в одну партицию.
type EventPublisher struct {
	producer *Producer
	topic    string
}

// NewEventPublisher создаёт Kafka-паблишер событий заказов.
func NewEventPublisher(producer *Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = TopicPedidoEvents
	}
	return &EventPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.PedidoEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka event publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewPedidoEventMessage(event)
	header := sarama.RecordHeader{
		Key:   []byte(HeaderEventType),
		Value: []byte(msg.EventType),
	}
	return p.producer.PublishEvent(p.topic, msg.PedidoID, msg, header)
}

var _ domain.EventPublisher = (*EventPublisher)(nil)
