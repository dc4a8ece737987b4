package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/types"
)

type TradeInSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.TradeInSession) (*types.TradeInSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.TradeInSession, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TradeInSession, error)
	Update(ctx context.Context, tx *gorm.DB, session *types.TradeInSession) (*types.TradeInSession, error)
	// TransitionStatus performs a check-and-set: the update applies only if
	// the session still has the expected status. Returns true when the row
	// was claimed by this caller.
	TransitionStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, from []types.SessionStatus, to types.SessionStatus) (bool, error)
	// ExpireBefore bulk-transitions draft/priced sessions whose TTL passed.
	// Safe to run concurrently: the WHERE clause is the exclusivity guard.
	ExpireBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type tradeInSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTradeInSessionRepo(db *gorm.DB, baseLog *logger.Logger) TradeInSessionRepo {
	repoLog := baseLog.With("repo", "TradeInSessionRepo")
	return &tradeInSessionRepo{db: db, log: repoLog}
}

func (r *tradeInSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.TradeInSession) (*types.TradeInSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

func (r *tradeInSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.TradeInSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TradeInSession
	err := transaction.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tradeInSessionRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TradeInSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TradeInSession

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *tradeInSessionRepo) Update(ctx context.Context, tx *gorm.DB, session *types.TradeInSession) (*types.TradeInSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Save(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

func (r *tradeInSessionRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, from []types.SessionStatus, to types.SessionStatus) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.TradeInSession{}).
		Where("id = ? AND status IN ?", sessionID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (r *tradeInSessionRepo) ExpireBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.TradeInSession{}).
		Where("status IN ? AND expires_at < ?", []types.SessionStatus{types.StatusDraft, types.StatusPriced}, cutoff).
		Update("status", types.StatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
