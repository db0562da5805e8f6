package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/crisis-event-etl/internal/config"
	"github.com/couchcryptid/crisis-event-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes raw feed messages from the source topic as part of a
// consumer group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{
		reader:        r,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
	}
}

// ExtractBatch fetches up to batchSize messages, returning early once the
// flush interval elapses so a slow topic still produces partial batches.
// Offsets are not committed here; each RawEvent carries a Commit closure the
// pipeline invokes after the event is safely loaded.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	deadline := time.Now().Add(r.flushInterval)
	batch := make([]domain.RawEvent, 0, batchSize)

	for len(batch) < batchSize {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, remaining)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			// A deadline hit just closes out the batch; everything else is a
			// real fetch failure.
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if len(batch) > 0 && ctx.Err() == nil {
				r.logger.Warn("fetch failed mid-batch, returning partial batch", "error", err, "batch_size", len(batch))
				break
			}
			return nil, err
		}
		batch = append(batch, r.mapMessageToRawEvent(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
