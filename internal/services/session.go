package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/swapkart/tradein-backend/internal/apierr"
	"github.com/swapkart/tradein-backend/internal/assessment"
	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/pricing"
	"github.com/swapkart/tradein-backend/internal/repos"
	"github.com/swapkart/tradein-backend/internal/types"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultExtendBy    = 15 * time.Minute
	maxExtensionsCount = 1
)

type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID, category, productID, variantID string) (*types.TradeInSession, error)
	SubmitAssessment(ctx context.Context, userID, sessionID uuid.UUID, a *assessment.Assessment) (*types.TradeInSession, error)
	GetQuote(ctx context.Context, userID, sessionID uuid.UUID) (*pricing.Quote, error)
	Extend(ctx context.Context, userID, sessionID uuid.UUID) (*types.TradeInSession, error)
	Finalize(ctx context.Context, userID, sessionID uuid.UUID, pickupDetails json.RawMessage) (*types.TradeInOrder, error)
	Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*types.TradeInSession, error)
	ExpireSweep(ctx context.Context) (int64, error)
}

// SessionConfig carries the lifecycle knobs. Zero values fall back to the
// documented defaults: 30 minute TTL, one 15 minute extension.
type SessionConfig struct {
	TTL      time.Duration
	ExtendBy time.Duration
	Now      func() time.Time
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.TradeInSessionRepo
	orderRepo   repos.TradeInOrderRepo
	catalogSvc  catalog.Service
	aggregator  *assessment.Aggregator
	resumeStore ResumeStore
	ttl         time.Duration
	extendBy    time.Duration
	now         func() time.Time
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	sessionRepo repos.TradeInSessionRepo,
	orderRepo repos.TradeInOrderRepo,
	catalogSvc catalog.Service,
	resumeStore ResumeStore,
	cfg SessionConfig,
) SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if cfg.ExtendBy <= 0 {
		cfg.ExtendBy = defaultExtendBy
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	serviceLog := log.With("service", "SessionService")
	return &sessionService{
		db:          db,
		log:         serviceLog,
		sessionRepo: sessionRepo,
		orderRepo:   orderRepo,
		catalogSvc:  catalogSvc,
		aggregator:  assessment.NewAggregator(log),
		resumeStore: resumeStore,
		ttl:         cfg.TTL,
		extendBy:    cfg.ExtendBy,
		now:         cfg.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, userID uuid.UUID, category, productID, variantID string) (*types.TradeInSession, error) {
	snap, err := s.catalogSvc.Snapshot(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}
	basePrice, ok := snap.BasePrice(productID, variantID)
	if !ok {
		return nil, apierr.New(404, apierr.CodeBadRequest, fmt.Errorf("unknown product/variant %s/%s", productID, variantID))
	}

	now := s.now().UTC()
	emptyAssessment := assessment.New(productID, variantID)
	assessmentJSON, err := json.Marshal(emptyAssessment)
	if err != nil {
		return nil, err
	}
	quote := pricing.BaseQuote(basePrice)
	quote.CatalogVersion = snap.Version
	quoteJSON, err := json.Marshal(quote)
	if err != nil {
		return nil, err
	}

	session := &types.TradeInSession{
		ID:         uuid.New(),
		UserID:     userID,
		Category:   category,
		ProductID:  productID,
		VariantID:  variantID,
		Assessment: datatypes.JSON(assessmentJSON),
		Quote:      datatypes.JSON(quoteJSON),
		Status:     types.StatusDraft,
		ExpiresAt:  now.Add(s.ttl),
	}
	created, err := s.sessionRepo.Create(ctx, nil, session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("Trade-in session created",
		"session_id", created.ID,
		"user_id", userID,
		"product_id", productID,
		"variant_id", variantID,
		"base_price", basePrice.String(),
	)
	return created, nil
}

// SubmitAssessment replaces the session's assessment wholesale and reprices
// it against the live catalog. Submitting the same assessment twice produces
// the same quote; the TTL resets on every priced transition.
func (s *sessionService) SubmitAssessment(ctx context.Context, userID, sessionID uuid.UUID, a *assessment.Assessment) (*types.TradeInSession, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != types.StatusDraft && session.Status != types.StatusPriced {
		return nil, apierr.SessionState(fmt.Errorf("session %s is %s, cannot accept assessments", sessionID, session.Status))
	}
	if a == nil {
		a = assessment.New(session.ProductID, session.VariantID)
	}
	if a.ProductID != session.ProductID || a.VariantID != session.VariantID {
		return nil, apierr.New(400, apierr.CodeBadRequest, fmt.Errorf("assessment targets %s:%s but session holds %s:%s", a.ProductID, a.VariantID, session.ProductID, session.VariantID))
	}
	a.Normalize()

	snap, err := s.catalogSvc.Snapshot(ctx, session.Category)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}
	basePrice, ok := snap.BasePrice(session.ProductID, session.VariantID)
	if !ok {
		// The variant left the catalog mid-session; the stored base is gone.
		return nil, apierr.New(409, apierr.CodeSessionState, fmt.Errorf("variant %s/%s no longer in catalog", session.ProductID, session.VariantID))
	}

	signals := s.aggregator.Signals(a, snap)
	quote := pricing.Compute(basePrice, signals)
	quote.CatalogVersion = snap.Version

	assessmentJSON, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	quoteJSON, err := json.Marshal(quote)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session.Assessment = datatypes.JSON(assessmentJSON)
	session.Quote = datatypes.JSON(quoteJSON)
	session.Status = types.StatusPriced
	session.ExpiresAt = now.Add(s.ttl)

	updated, err := s.sessionRepo.Update(ctx, nil, session)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	s.log.Info("Assessment priced",
		"session_id", sessionID,
		"final_price", quote.FinalPrice.String(),
		"percent_total", quote.PercentTotal.String(),
		"absolute_total", quote.AbsoluteTotal.String(),
		"catalog_version", snap.Version,
	)
	return updated, nil
}

func (s *sessionService) GetQuote(ctx context.Context, userID, sessionID uuid.UUID) (*pricing.Quote, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return decodeQuote(session)
}

// Extend pushes the expiry forward by the configured window. Monotonic: it
// never shortens a TTL, and a session gets at most one extension; anything
// past that is a no-op that returns the session unchanged.
func (s *sessionService) Extend(ctx context.Context, userID, sessionID uuid.UUID) (*types.TradeInSession, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != types.StatusPriced {
		return nil, apierr.SessionState(fmt.Errorf("session %s is %s, only priced sessions extend", sessionID, session.Status))
	}
	if session.ExtensionCount >= maxExtensionsCount {
		return session, nil
	}

	target := s.now().UTC().Add(s.extendBy)
	if !target.After(session.ExpiresAt) {
		return session, nil
	}

	session.ExpiresAt = target
	session.ExtensionCount++
	updated, err := s.sessionRepo.Update(ctx, nil, session)
	if err != nil {
		return nil, fmt.Errorf("extend session: %w", err)
	}

	s.log.Info("Session extended", "session_id", sessionID, "expires_at", target)
	return updated, nil
}

// Finalize turns a priced session into an order. The priced→pickup_scheduled
// check-and-set claims the session against a concurrent sweep or a second
// finalize; the order insert and the ordered transition commit together.
func (s *sessionService) Finalize(ctx context.Context, userID, sessionID uuid.UUID, pickupDetails json.RawMessage) (*types.TradeInOrder, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != types.StatusPriced {
		return nil, apierr.SessionState(fmt.Errorf("session %s is %s, only priced sessions finalize", sessionID, session.Status))
	}
	quote, err := decodeQuote(session)
	if err != nil {
		return nil, err
	}
	if quote.FinalPrice.IsZero() {
		return nil, apierr.SessionNotPriceable(fmt.Errorf("session %s has a zero-value quote", sessionID))
	}

	order := &types.TradeInOrder{
		ID:            uuid.New(),
		SessionID:     session.ID,
		UserID:        userID,
		FinalPrice:    quote.FinalPrice,
		PickupDetails: datatypes.JSON(pickupDetails),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.sessionRepo.TransitionStatus(ctx, tx, session.ID, []types.SessionStatus{types.StatusPriced}, types.StatusPickupScheduled)
		if err != nil {
			return err
		}
		if !claimed {
			return apierr.SessionState(fmt.Errorf("session %s was claimed concurrently", sessionID))
		}
		if _, err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		claimed, err = s.sessionRepo.TransitionStatus(ctx, tx, session.ID, []types.SessionStatus{types.StatusPickupScheduled}, types.StatusOrdered)
		if err != nil {
			return err
		}
		if !claimed {
			return apierr.SessionState(fmt.Errorf("session %s left pickup_scheduled unexpectedly", sessionID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.clearResume(ctx, userID, session.ProductID, session.VariantID)

	s.log.Info("Trade-in finalized",
		"session_id", sessionID,
		"order_id", order.ID,
		"final_price", order.FinalPrice.String(),
	)
	return order, nil
}

func (s *sessionService) Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*types.TradeInSession, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, apierr.SessionState(fmt.Errorf("session %s is already %s", sessionID, session.Status))
	}

	claimed, err := s.sessionRepo.TransitionStatus(ctx, nil, session.ID, []types.SessionStatus{types.StatusDraft, types.StatusPriced}, types.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apierr.SessionState(fmt.Errorf("session %s was claimed concurrently", sessionID))
	}
	session.Status = types.StatusCancelled

	s.clearResume(ctx, userID, session.ProductID, session.VariantID)
	s.log.Info("Session cancelled", "session_id", sessionID)
	return session, nil
}

// ExpireSweep transitions every overdue draft/priced session to expired. The
// repo's WHERE clause makes the sweep idempotent and safe to run from
// multiple instances at once.
func (s *sessionService) ExpireSweep(ctx context.Context) (int64, error) {
	expired, err := s.sessionRepo.ExpireBefore(ctx, nil, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire sweep: %w", err)
	}
	if expired > 0 {
		s.log.Info("Expired overdue sessions", "count", expired)
	}
	return expired, nil
}

// load fetches a session, enforces ownership, and surfaces lapsed TTLs as
// SessionExpired. Ownership failures report not-found: a session id is not
// discoverable by other users.
func (s *sessionService) load(ctx context.Context, userID, sessionID uuid.UUID) (*types.TradeInSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.SessionNotFound(fmt.Errorf("session %s not found", sessionID))
		}
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if session.UserID != userID {
		return nil, apierr.SessionNotFound(fmt.Errorf("session %s not found", sessionID))
	}
	if session.Status == types.StatusExpired {
		return nil, apierr.SessionExpired(fmt.Errorf("session %s expired", sessionID))
	}
	if session.ExpiredAt(s.now().UTC()) {
		// Lazy expiry: the sweep may not have run yet. CAS so a concurrent
		// sweep or finalize is never overwritten.
		if _, err := s.sessionRepo.TransitionStatus(ctx, nil, session.ID, []types.SessionStatus{types.StatusDraft, types.StatusPriced}, types.StatusExpired); err != nil {
			s.log.Warn("Lazy expiry transition failed", "session_id", session.ID, "error", err)
		}
		return nil, apierr.SessionExpired(fmt.Errorf("session %s expired", sessionID))
	}
	return session, nil
}

func (s *sessionService) clearResume(ctx context.Context, userID uuid.UUID, productID, variantID string) {
	if s.resumeStore == nil {
		return
	}
	if err := s.resumeStore.Clear(ctx, userID, productID, variantID); err != nil {
		s.log.Warn("Failed to clear resumption cache", "user_id", userID, "product_id", productID, "error", err)
	}
}

func decodeQuote(session *types.TradeInSession) (*pricing.Quote, error) {
	var quote pricing.Quote
	if err := json.Unmarshal(session.Quote, &quote); err != nil {
		return nil, fmt.Errorf("decode stored quote: %w", err)
	}
	return &quote, nil
}

// DecodeAssessment exposes the stored assessment for handlers and tests.
func DecodeAssessment(session *types.TradeInSession) (*assessment.Assessment, error) {
	var a assessment.Assessment
	if err := json.Unmarshal(session.Assessment, &a); err != nil {
		return nil, fmt.Errorf("decode stored assessment: %w", err)
	}
	return &a, nil
}
