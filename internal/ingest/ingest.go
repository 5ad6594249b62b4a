// Package ingest materializes the raw record topics into the store before a
// run: the pipeline core never reads mid-computation, it sees fully loaded
// inputs or nothing.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"
	"github.com/ntentasd/pdm-pipeline/internal/metrics"
	"github.com/ntentasd/pdm-pipeline/internal/store"
	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

const (
	TopicTelemetry   = "pdm.telemetry"
	TopicErrors      = "pdm.errors"
	TopicMaintenance = "pdm.maintenance"
	TopicFailures    = "pdm.failures"
)

type Ingester struct {
	brokers []string
	db      *store.DB
}

func New(brokers []string, db *store.DB) *Ingester {
	return &Ingester{
		brokers: brokers,
		db:      db,
	}
}

// Drain consumes every raw topic from the oldest offset up to its current
// high-water mark and writes the rows to the store. A malformed row aborts
// the drain: data integrity cannot be locally repaired.
func (in *Ingester) Drain(ctx context.Context) error {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	client, err := sarama.NewClient(in.brokers, cfg)
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer client.Close()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()

	for _, topic := range []string{TopicTelemetry, TopicErrors, TopicMaintenance, TopicFailures} {
		if err := in.drainTopic(ctx, client, consumer, topic); err != nil {
			return fmt.Errorf("drain %s: %w", topic, err)
		}
	}
	return nil
}

func (in *Ingester) drainTopic(ctx context.Context, client sarama.Client, consumer sarama.Consumer, topic string) error {
	partitions, err := consumer.Partitions(topic)
	if err != nil {
		return fmt.Errorf("list partitions: %w", err)
	}

	for _, partition := range partitions {
		oldest, err := client.GetOffset(topic, partition, sarama.OffsetOldest)
		if err != nil {
			return fmt.Errorf("oldest offset: %w", err)
		}
		newest, err := client.GetOffset(topic, partition, sarama.OffsetNewest)
		if err != nil {
			return fmt.Errorf("newest offset: %w", err)
		}
		if oldest == newest {
			continue
		}

		pc, err := consumer.ConsumePartition(topic, partition, oldest)
		if err != nil {
			return fmt.Errorf("consume partition %d: %w", partition, err)
		}

		drained := 0
		for msg := range pc.Messages() {
			if err := in.handle(ctx, topic, msg.Value); err != nil {
				pc.Close()
				return err
			}
			drained++
			if msg.Offset >= newest-1 {
				break
			}
		}
		pc.Close()

		metrics.IngestRecordsTotal.WithLabelValues(topic).Add(float64(drained))
		log.Printf("[ingest] %s/%d: drained %d records", topic, partition, drained)
	}
	return nil
}

func (in *Ingester) handle(ctx context.Context, topic string, value []byte) error {
	switch topic {
	case TopicTelemetry:
		var r types.TelemetryReading
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("malformed telemetry record: %w", err)
		}
		return in.db.InsertTelemetry(ctx, r)
	case TopicErrors:
		var e types.ErrorEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("malformed error record: %w", err)
		}
		return in.db.InsertErrorEvent(ctx, e)
	case TopicMaintenance:
		var e types.MaintenanceEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("malformed maintenance record: %w", err)
		}
		return in.db.InsertMaintenanceEvent(ctx, e)
	case TopicFailures:
		var e types.FailureEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("malformed failure record: %w", err)
		}
		return in.db.InsertFailureEvent(ctx, e)
	default:
		return fmt.Errorf("unhandled topic %s", topic)
	}
}
