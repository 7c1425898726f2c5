// README: Kafka sync producer for the dispatch offer stream.
package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

func NewKafkaProducer(brokers, clientID string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // required by SyncProducer
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second

	list := strings.Split(brokers, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	producer, err := sarama.NewSyncProducer(list, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer for %v: %w", list, err)
	}
	return producer, nil
}
