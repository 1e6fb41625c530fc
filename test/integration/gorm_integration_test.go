package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/internal/repository/specification"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a migrated database (go run ./cmd/migrate).
func newFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	t.Cleanup(func() { _ = sqlDB.Close() })

	return unitofwork.NewRepositoryFactory(gormDB)
}

func TestCaseRepository_OptimisticConcurrency(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).CaseRepository()

	caseID := "ITEST:" + uuid.NewString()
	c := &entity.Case{
		CaseId:     caseID,
		ClientId:   "acme",
		ChannelId:  "ITEST",
		ThreadTs:   "1",
		Status:     "UNDER_REVIEW",
		ClientData: map[string]interface{}{"event_type": "gala"},
		Tags:       []string{"gala"},
		Version:    1,
	}
	require.NoError(t, repo.Create(ctx, c))

	err := repo.Create(ctx, c)
	assert.ErrorIs(t, err, apperr.ErrCaseExists)

	first, err := repo.FindOne(ctx, specification.ByCaseID{CaseID: caseID})
	require.NoError(t, err)
	second := first.Clone()

	first.Status = "CONFIRMED"
	require.NoError(t, repo.UpdateIfVersion(ctx, first, 1))
	assert.Equal(t, int64(2), first.Version)

	second.Status = "REJECTED"
	err = repo.UpdateIfVersion(ctx, second, 1)
	assert.ErrorIs(t, err, apperr.ErrVersionConflict)

	stored, err := repo.FindOne(ctx, specification.ByCaseID{CaseID: caseID})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", stored.Status)
	assert.Equal(t, "gala", stored.ClientData["event_type"])
}

func TestProcessedActionAndBriefUniqueness(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)

	caseID := "ITEST:" + uuid.NewString()
	action := &entity.ProcessedAction{
		CaseId:          caseID,
		Token:           "2:confirm_correct:U1",
		ActionKind:      "confirm_correct",
		Actor:           "U1",
		ResultingStatus: "CONFIRMED",
		CaseVersion:     2,
	}
	recorded, err := uow.ProcessedActionRepository().Record(ctx, action)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = uow.ProcessedActionRepository().Record(ctx, action)
	require.NoError(t, err)
	assert.False(t, recorded)

	b := &entity.Brief{CaseId: caseID, Audience: "planner", DocumentReference: "file:///tmp/a.md"}
	stored, created, err := uow.BriefRepository().CreateIfAbsent(ctx, b)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := uow.BriefRepository().CreateIfAbsent(ctx, &entity.Brief{
		CaseId: caseID, Audience: "planner", DocumentReference: "file:///tmp/b.md",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.DocumentReference, again.DocumentReference)
}
