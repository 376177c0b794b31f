package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

var (
	cacheGetDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxrelief_projection_cache_get_duration_ms",
		Help:    "Latency of projection cache reads in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
	cacheDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxrelief_projection_cache_decode_failures_total",
		Help: "Cached snapshots that failed to decode and were dropped",
	})
)

const recordKeyPrefix = "proj:record:"

// RedisCache is a Redis-backed snapshot cache for multi-instance
// deployments. Entries expire on a TTL; expiry only costs a replay.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// recordSnapshot is the wire form of a projected record. Kept separate from
// models.Record so cache encoding can evolve without touching the domain type.
type recordSnapshot struct {
	ID             uuid.UUID                 `json:"id"`
	ProjectID      uuid.UUID                 `json:"project_id"`
	InvoiceNumber  string                    `json:"invoice_number"`
	InvoiceDate    time.Time                 `json:"invoice_date"`
	Currency       string                    `json:"currency"`
	GrossAmount    decimal.Decimal           `json:"gross_amount"`
	NetAmount      decimal.Decimal           `json:"net_amount"`
	TaxAmount      decimal.Decimal           `json:"tax_amount"`
	Description    string                    `json:"description"`
	Counterpart    models.Counterpart        `json:"counterpart"`
	Direction      id.Direction              `json:"direction"`
	Category       *id.DeductionCategory     `json:"category,omitempty"`
	Qualifies      bool                      `json:"qualifies"`
	Qualification  decimal.Decimal           `json:"qualification"`
	Status         id.RecordStatus           `json:"status"`
	Justification  *string                   `json:"justification,omitempty"`
	LastValidation *models.ValidationSummary `json:"last_validation,omitempty"`
	Version        int64                     `json:"version"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

func (c *RedisCache) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	start := time.Now()
	defer func() {
		cacheGetDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	data, err := c.client.Get(ctx, recordKeyPrefix+recordID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("projection cache get %s: %w", recordID, err)
	}

	var snap recordSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt entry must not poison reads; drop it and report a miss.
		cacheDecodeFailures.Inc()
		_ = c.client.Del(ctx, recordKeyPrefix+recordID.String()).Err()
		return nil, nil
	}
	return snap.toRecord(), nil
}

func (c *RedisCache) Put(ctx context.Context, rec *models.Record) error {
	data, err := json.Marshal(fromRecord(rec))
	if err != nil {
		return fmt.Errorf("projection cache encode %s: %w", rec.ID, err)
	}
	if err := c.client.Set(ctx, recordKeyPrefix+rec.ID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("projection cache put %s: %w", rec.ID, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, recordID id.RecordID) error {
	if err := c.client.Del(ctx, recordKeyPrefix+recordID.String()).Err(); err != nil {
		return fmt.Errorf("projection cache invalidate %s: %w", recordID, err)
	}
	return nil
}

func fromRecord(rec *models.Record) recordSnapshot {
	return recordSnapshot{
		ID:             uuid.UUID(rec.ID),
		ProjectID:      uuid.UUID(rec.ProjectID),
		InvoiceNumber:  rec.InvoiceNumber,
		InvoiceDate:    rec.InvoiceDate,
		Currency:       rec.Currency,
		GrossAmount:    rec.GrossAmount,
		NetAmount:      rec.NetAmount,
		TaxAmount:      rec.TaxAmount,
		Description:    rec.Description,
		Counterpart:    rec.Counterpart,
		Direction:      rec.Direction,
		Category:       rec.Category,
		Qualifies:      rec.Qualifies,
		Qualification:  rec.Qualification,
		Status:         rec.Status,
		Justification:  rec.Justification,
		LastValidation: rec.LastValidation,
		Version:        rec.Version,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func (s recordSnapshot) toRecord() *models.Record {
	return &models.Record{
		ID:             id.RecordID(s.ID),
		ProjectID:      id.ProjectID(s.ProjectID),
		InvoiceNumber:  s.InvoiceNumber,
		InvoiceDate:    s.InvoiceDate,
		Currency:       s.Currency,
		GrossAmount:    s.GrossAmount,
		NetAmount:      s.NetAmount,
		TaxAmount:      s.TaxAmount,
		Description:    s.Description,
		Counterpart:    s.Counterpart,
		Direction:      s.Direction,
		Category:       s.Category,
		Qualifies:      s.Qualifies,
		Qualification:  s.Qualification,
		Status:         s.Status,
		Justification:  s.Justification,
		LastValidation: s.LastValidation,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
