package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/swapkart/tradein-backend/internal/repos/testutil"
	"github.com/swapkart/tradein-backend/internal/types"
)

func seedSession(t *testing.T, repo TradeInSessionRepo, status types.SessionStatus, expiresAt time.Time) *types.TradeInSession {
	t.Helper()
	session := &types.TradeInSession{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Category:   "smartphones",
		ProductID:  "p1",
		VariantID:  "v1",
		Assessment: datatypes.JSON(`{}`),
		Quote:      datatypes.JSON(`{}`),
		Status:     status,
		ExpiresAt:  expiresAt,
	}
	created, err := repo.Create(context.Background(), nil, session)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func TestSessionRepoRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTradeInSessionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created := seedSession(t, repo, types.StatusDraft, time.Now().Add(time.Hour))

	fetched, err := repo.GetByID(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.UserID != created.UserID || fetched.Status != types.StatusDraft {
		t.Fatalf("fetched = %+v, want the created row", fetched)
	}

	sessions, err := repo.GetByUserIDs(ctx, nil, []uuid.UUID{created.UserID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != created.ID {
		t.Fatalf("GetByUserIDs = %v, want the one created session", sessions)
	}
}

func TestTransitionStatusIsCheckAndSet(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTradeInSessionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	session := seedSession(t, repo, types.StatusPriced, time.Now().Add(time.Hour))

	claimed, err := repo.TransitionStatus(ctx, nil, session.ID, []types.SessionStatus{types.StatusPriced}, types.StatusCancelled)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if !claimed {
		t.Fatal("first transition should claim the row")
	}

	// Same expectation again: the row is no longer priced.
	claimed, err = repo.TransitionStatus(ctx, nil, session.ID, []types.SessionStatus{types.StatusPriced}, types.StatusExpired)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if claimed {
		t.Fatal("second transition must lose the claim")
	}

	fetched, err := repo.GetByID(ctx, nil, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != types.StatusCancelled {
		t.Fatalf("Status = %s, want cancelled (the winning transition)", fetched.Status)
	}
}

func TestExpireBeforeOnlyTouchesOverdueActiveSessions(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTradeInSessionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	now := time.Now().UTC()
	overdueDraft := seedSession(t, repo, types.StatusDraft, now.Add(-time.Minute))
	overduePriced := seedSession(t, repo, types.StatusPriced, now.Add(-time.Minute))
	fresh := seedSession(t, repo, types.StatusPriced, now.Add(time.Hour))
	ordered := seedSession(t, repo, types.StatusOrdered, now.Add(-time.Hour))

	count, err := repo.ExpireBefore(ctx, nil, now)
	if err != nil {
		t.Fatalf("ExpireBefore: %v", err)
	}
	if count != 2 {
		t.Fatalf("expired %d sessions, want 2", count)
	}

	for _, tc := range []struct {
		id   uuid.UUID
		want types.SessionStatus
	}{
		{overdueDraft.ID, types.StatusExpired},
		{overduePriced.ID, types.StatusExpired},
		{fresh.ID, types.StatusPriced},
		{ordered.ID, types.StatusOrdered},
	} {
		got, err := repo.GetByID(ctx, nil, tc.id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Status != tc.want {
			t.Fatalf("session %s status = %s, want %s", tc.id, got.Status, tc.want)
		}
	}

	// Second sweep finds nothing left to expire.
	count, err = repo.ExpireBefore(ctx, nil, now)
	if err != nil {
		t.Fatalf("ExpireBefore: %v", err)
	}
	if count != 0 {
		t.Fatalf("second sweep expired %d sessions, want 0", count)
	}
}
