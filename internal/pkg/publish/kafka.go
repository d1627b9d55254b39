package publish

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaSink forwards events to a Kafka topic. With no brokers configured
// the sink is inert: it never subscribes and Run returns immediately.
type KafkaSink struct {
	writer *kafka.Writer
	pub    *Publisher
}

// NewKafkaSink builds the sink. An empty broker list yields a no-op sink.
func NewKafkaSink(brokers []string, topic string, pub *Publisher) *KafkaSink {
	if len(brokers) == 0 {
		return &KafkaSink{pub: pub}
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		pub: pub,
	}
}

// Run consumes events until the context ends.
func (k *KafkaSink) Run(ctx context.Context) {
	if k.writer == nil {
		return
	}
	id, ch := k.pub.Subscribe("kafka")
	defer k.pub.Unsubscribe(id)

	slog.Info("kafka sink: started", "topic", k.writer.Topic)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("kafka sink: encode failed", "error", err)
				continue
			}
			msg := kafka.Message{Value: data}
			if ev.ContentHash != "" {
				msg.Key = []byte(ev.ContentHash)
			}
			if err := k.writer.WriteMessages(ctx, msg); err != nil {
				slog.Error("kafka sink: write failed", "topic", k.writer.Topic, "error", err)
			}
		}
	}
}

// Close flushes and releases the writer.
func (k *KafkaSink) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
