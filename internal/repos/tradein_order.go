package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/types"
)

type TradeInOrderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, order *types.TradeInOrder) (*types.TradeInOrder, error)
	GetByID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.TradeInOrder, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.TradeInOrder, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TradeInOrder, error)
}

type tradeInOrderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTradeInOrderRepo(db *gorm.DB, baseLog *logger.Logger) TradeInOrderRepo {
	repoLog := baseLog.With("repo", "TradeInOrderRepo")
	return &tradeInOrderRepo{db: db, log: repoLog}
}

func (r *tradeInOrderRepo) Create(ctx context.Context, tx *gorm.DB, order *types.TradeInOrder) (*types.TradeInOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}

	return order, nil
}

func (r *tradeInOrderRepo) GetByID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.TradeInOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TradeInOrder
	if err := transaction.WithContext(ctx).
		Where("id = ?", orderID).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tradeInOrderRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.TradeInOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TradeInOrder
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tradeInOrderRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.TradeInOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TradeInOrder

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
