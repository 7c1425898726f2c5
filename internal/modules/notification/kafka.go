// README: Kafka publisher streaming dispatch offers for analytics and downstream consumers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Send publishes one message per notification keyed by booking, so every wave
// of a booking lands on the same partition in order.
func (p *KafkaPublisher) Send(ctx context.Context, batch []Notification) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(batch))
	for _, n := range batch {
		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification %s: %w", n.ID, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(string(n.BookingID)),
			Value: sarama.ByteEncoder(body),
			Headers: []sarama.RecordHeader{
				{Key: []byte("notification_type"), Value: []byte(n.Type)},
				{Key: []byte("wave"), Value: []byte(strconv.Itoa(n.Wave))},
			},
		})
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("publish %d offers to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
