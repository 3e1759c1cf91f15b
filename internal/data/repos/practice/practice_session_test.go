package practice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
)

func TestPracticeSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewPracticeSessionRepo(db, testutil.Logger(t))

	userID := uuid.New()

	empty, err := repo.Totals(dbc, userID)
	require.NoError(t, err)
	assert.Equal(t, SessionTotals{}, empty)

	end := time.Now().UTC()
	for i, minutes := range []float64{30, 45.5} {
		s := &types.PracticeSession{
			UserID:          userID,
			Skill:           "arpeggios",
			DurationMinutes: minutes,
			StartedAt:       end.Add(-time.Hour),
			EndedAt:         end.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(dbc, s))
		assert.Equal(t, types.DefaultTaskCategory, s.Category)
	}
	testutil.SeedSession(t, context.Background(), tx, uuid.New(), 90)

	totals, err := repo.Totals(dbc, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.Sessions)
	assert.InDelta(t, 75.5, totals.Minutes, 0.001)

	rows, err := repo.ListByUser(dbc, userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 45.5, rows[0].DurationMinutes, 0.001, "newest first")
}
