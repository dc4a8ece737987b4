package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/swapkart/tradein-backend/internal/assessment"
	"github.com/swapkart/tradein-backend/internal/logger"
)

const resumeTTL = 7 * 24 * time.Hour

// ResumeStore is the advisory resumption cache: it shadows in-progress
// assessments so an interrupted flow can repopulate its selections. It is
// never consulted for pricing and must absorb storage failures quietly —
// a missing or corrupt entry is simply "nothing to resume".
type ResumeStore interface {
	Save(ctx context.Context, userID uuid.UUID, a *assessment.Assessment) error
	Load(ctx context.Context, userID uuid.UUID, productID, variantID string) (*assessment.Assessment, error)
	Clear(ctx context.Context, userID uuid.UUID, productID, variantID string) error
}

type redisResumeStore struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewResumeStore(log *logger.Logger) (ResumeStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisResumeStore{
		log: log.With("service", "ResumeStore"),
		rdb: rdb,
		ttl: resumeTTL,
	}, nil
}

func resumeKey(userID uuid.UUID, productID, variantID string) string {
	return fmt.Sprintf("tradein:resume:%s:%s:%s", userID, productID, variantID)
}

func (r *redisResumeStore) Save(ctx context.Context, userID uuid.UUID, a *assessment.Assessment) error {
	if a == nil {
		return nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, resumeKey(userID, a.ProductID, a.VariantID), raw, r.ttl).Err()
}

func (r *redisResumeStore) Load(ctx context.Context, userID uuid.UUID, productID, variantID string) (*assessment.Assessment, error) {
	raw, err := r.rdb.Get(ctx, resumeKey(userID, productID, variantID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, ok := DecodeResumePayload(raw)
	if !ok {
		r.log.Warn("Discarding corrupt resume payload", "user_id", userID, "product_id", productID, "variant_id", variantID)
		return nil, nil
	}
	return a, nil
}

func (r *redisResumeStore) Clear(ctx context.Context, userID uuid.UUID, productID, variantID string) error {
	return r.rdb.Del(ctx, resumeKey(userID, productID, variantID)).Err()
}

// DecodeResumePayload deserializes defensively: anything malformed reads as
// "no saved assessment" rather than an error.
func DecodeResumePayload(raw []byte) (*assessment.Assessment, bool) {
	var a assessment.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false
	}
	if a.ProductID == "" || a.VariantID == "" {
		return nil, false
	}
	return &a, true
}

// noopResumeStore stands in when Redis is unreachable. The cache is
// best-effort by contract, so the rest of the flow proceeds without it.
type noopResumeStore struct{}

func NewNoopResumeStore() ResumeStore { return noopResumeStore{} }

func (noopResumeStore) Save(ctx context.Context, userID uuid.UUID, a *assessment.Assessment) error {
	return nil
}

func (noopResumeStore) Load(ctx context.Context, userID uuid.UUID, productID, variantID string) (*assessment.Assessment, error) {
	return nil, nil
}

func (noopResumeStore) Clear(ctx context.Context, userID uuid.UUID, productID, variantID string) error {
	return nil
}
