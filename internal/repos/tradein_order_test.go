package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/swapkart/tradein-backend/internal/repos/testutil"
	"github.com/swapkart/tradein-backend/internal/types"
)

func TestOrderRepoRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTradeInOrderRepo(db, testutil.Logger(t))
	ctx := context.Background()

	order := &types.TradeInOrder{
		ID:            uuid.New(),
		SessionID:     uuid.New(),
		UserID:        uuid.New(),
		FinalPrice:    decimal.NewFromInt(8500),
		PickupDetails: datatypes.JSON(`{"address":"12 MG Road"}`),
	}
	if _, err := repo.Create(ctx, nil, order); err != nil {
		t.Fatalf("Create: %v", err)
	}

	bySession, err := repo.GetBySessionID(ctx, nil, order.SessionID)
	if err != nil {
		t.Fatalf("GetBySessionID: %v", err)
	}
	if bySession.ID != order.ID || !bySession.FinalPrice.Equal(order.FinalPrice) {
		t.Fatalf("GetBySessionID = %+v, want the created order", bySession)
	}

	byUser, err := repo.GetByUserIDs(ctx, nil, []uuid.UUID{order.UserID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != order.ID {
		t.Fatalf("GetByUserIDs = %v, want the one created order", byUser)
	}
}

func TestOrderRepoRejectsSecondOrderPerSession(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTradeInOrderRepo(db, testutil.Logger(t))
	ctx := context.Background()

	sessionID := uuid.New()
	first := &types.TradeInOrder{
		ID:         uuid.New(),
		SessionID:  sessionID,
		UserID:     uuid.New(),
		FinalPrice: decimal.NewFromInt(8500),
	}
	if _, err := repo.Create(ctx, nil, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &types.TradeInOrder{
		ID:         uuid.New(),
		SessionID:  sessionID,
		UserID:     first.UserID,
		FinalPrice: decimal.NewFromInt(8500),
	}
	if _, err := repo.Create(ctx, nil, dup); err == nil {
		t.Fatal("second order for the same session must violate the unique index")
	}
}
