package repository

import (
	"context"

	"SetupScanner/internal/domain/models"
	"SetupScanner/internal/domain/repository"
	pkgkafka "SetupScanner/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, msgs ...pkgkafka.Message) error
	Close() error
}

// KafkaPublisher writes scan results as JSON keyed by symbol, so a hash balancer keeps each
// symbol's results on one partition in order. The result id travels as the trace header.
type KafkaPublisher struct {
	producer producer
	topic    string
}

func NewKafkaPublisher(p producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) PublishResult(ctx context.Context, r *models.ScanResult) error {
	return p.producer.Publish(ctx, p.topic, resultMessage(r))
}

func (p *KafkaPublisher) PublishResults(ctx context.Context, results []*models.ScanResult) error {
	msgs := make([]pkgkafka.Message, len(results))
	for i, r := range results {
		msgs[i] = resultMessage(r)
	}
	return p.producer.Publish(ctx, p.topic, msgs...)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func resultMessage(r *models.ScanResult) pkgkafka.Message {
	return pkgkafka.Message{
		Key:     []byte(r.Symbol),
		Value:   r,
		Headers: map[string]string{pkgkafka.TraceHeader: r.ID},
	}
}

var _ repository.ResultPublisher = (*KafkaPublisher)(nil)
