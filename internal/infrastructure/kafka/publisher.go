package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ events.BusClient = (*Publisher)(nil)

// Publisher cliente Kafka del bus de eventos, basado en el SyncProducer de
// sarama. Un solo topic: el tipo y la llave de idempotencia van en headers.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewPublisher crea el productor síncrono con acks de todos los brokers.
func NewPublisher(brokers []string, topic string, log *logger.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Productor Kafka inicializado")

	return &Publisher{producer: producer, topic: topic, log: log}, nil
}

// Publish serializa el sobre y lo envía. La llave del mensaje es el agregado:
// los eventos de un mismo lote o bodega quedan en la misma partición, en orden.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.EventID, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.AggregateID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(ev.EventID)},
			{Key: []byte("event_type"), Value: []byte(ev.EventType)},
			{Key: []byte("tenant_id"), Value: []byte(ev.TenantID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("event_id", ev.EventID).
			Str("topic", p.topic).
			Msg("Error publicando evento en Kafka")
		return fmt.Errorf("enviar mensaje a kafka: %w", err)
	}

	p.log.Info().
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Evento publicado")

	return nil
}

// Close cierra el productor drenando mensajes pendientes.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
