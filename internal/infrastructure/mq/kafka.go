package mq

import (
	"fmt"

	"github.com/IBM/sarama"

	"rewardhub/internal/config"
	"rewardhub/internal/logger"
)

// NewSyncProducer connects a producer that waits for every in-sync replica.
func NewSyncProducer(cfg *config.KafkaConfig) (sarama.SyncProducer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Info("kafka producer connected", "brokers", cfg.Brokers)
	return producer, nil
}

// Publisher sends keyed messages to one topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewPublisher(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
