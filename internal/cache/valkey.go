package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Valkey)(nil)

type Valkey struct {
	client  *redis.ClusterClient
	metrics *CacheMetrics
}

func NewValkey(addrs []string) *Valkey {
	opts := &redis.ClusterOptions{Addrs: addrs}
	client := redis.NewClusterClient(opts)
	client.Options().DialTimeout = 2 * time.Second
	cm := NewCacheMetrics("valkey")
	return &Valkey{client, cm}
}

func featureKey(machineID int) string {
	return fmt.Sprintf("features:%d", machineID)
}

func (v *Valkey) StoreLatest(machineID int, rec types.LabelledRecord) error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := featureKey(machineID)
	_, err = v.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(rec.Timestamp.UnixMilli()),
		Member: b,
	}).Result()
	if err != nil {
		return err
	}

	_, err = v.client.Expire(ctx, key, time.Hour).Result()
	if err != nil {
		return err
	}

	return nil
}

func (v *Valkey) FetchLatest(machineID int, n int) ([]types.LabelledRecord, error) {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Millisecond*100,
	)
	defer cancel()

	entries, err := v.client.ZRevRange(ctx, featureKey(machineID), 0, int64(n-1)).
		Result()
	if err != nil {
		return nil, err
	}

	ret := make([]types.LabelledRecord, 0, len(entries))

	for _, e := range entries {
		var rec types.LabelledRecord
		if err := json.Unmarshal([]byte(e), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse record: %w", err)
		}
		ret = append(ret, rec)
	}

	return ret, nil
}

func (v *Valkey) StoreSummary(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer("pdm-cache").Start(ctx, "cache.StoreSummary")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "valkey"),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	start := time.Now()
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store summary: %w", err)
	}
	v.metrics.RecordWrite(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (v *Valkey) FetchSummary(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer("pdm-cache").Start(ctx, "cache.FetchSummary")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "valkey"),
		attribute.String("cache.key", key),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*100,
	)
	defer cancel()

	start := time.Now()
	val, err := v.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		v.metrics.RecordMiss()
		span.SetAttributes(attribute.String("cache.result", "miss"))
		span.SetStatus(codes.Ok, "")
		return nil, ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cache fetch: %w", err)
	default:
		v.metrics.RecordHit(start)
		span.SetAttributes(attribute.String("cache.result", "hit"))
		span.SetStatus(codes.Ok, "")
		return val, nil
	}
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *Valkey) Close() {
	v.client.Close()
}
