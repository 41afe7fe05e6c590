package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/delivery-backend/internal/db"
	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	logger.Discard()

	ctx := context.Background()
	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(ctx, conn, "../../migrations/sqlite"))
	return conn
}

// stepClock выдаёт время, каждый вызов на step позже предыдущего.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func newRequest(name string) *models.DeliveryRequest {
	return &models.DeliveryRequest{
		ClientName:  name,
		ClientPhone: "+33 6 12 34 56 78",
		Description: "Paracétamol 500mg",
		Category:    "pharmacy",
		Budget:      15,
		Status:      valueobject.StatusPending,
	}
}

func TestDeliveryRequestRepository_CreateAssignsIDAndTimestamps(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))
	repo.WithClock(stepClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.Second))

	req := newRequest("Marie")
	id, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, req.ID)
	assert.True(t, req.CreatedAt.Equal(req.UpdatedAt))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Marie", list[0].ClientName)
	assert.Equal(t, valueobject.StatusPending, list[0].Status)
	assert.Nil(t, list[0].Image)
	assert.True(t, list[0].CreatedAt.Equal(req.CreatedAt))
}

func TestDeliveryRequestRepository_CreateKeepsImage(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))

	image := "/media/requests/abc.png"
	req := newRequest("Paul")
	req.Image = &image
	_, err := repo.Create(context.Background(), req)
	require.NoError(t, err)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Image)
	assert.Equal(t, image, *list[0].Image)
}

func TestDeliveryRequestRepository_ListNewestFirst(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))
	repo.WithClock(stepClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.Minute))

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := repo.Create(context.Background(), newRequest(fmt.Sprintf("client-%d", i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
}

func TestDeliveryRequestRepository_ListEmpty(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeliveryRequestRepository_UpdateStatusAdvancesUpdatedAt(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))
	repo.WithClock(stepClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.Second))

	id, err := repo.Create(context.Background(), newRequest("Marie"))
	require.NoError(t, err)

	first, err := repo.UpdateStatus(context.Background(), id, valueobject.StatusFinding)
	require.NoError(t, err)
	assert.Equal(t, valueobject.StatusFinding, first.Status)
	assert.True(t, first.UpdatedAt.After(first.CreatedAt))

	// Повтор того же статуса не ошибка, но время всё равно растёт
	second, err := repo.UpdateStatus(context.Background(), id, valueobject.StatusFinding)
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, valueobject.StatusFinding, list[0].Status)
	assert.True(t, list[0].UpdatedAt.Equal(second.UpdatedAt))
	assert.False(t, list[0].CreatedAt.After(list[0].UpdatedAt))
}

func TestDeliveryRequestRepository_UpdateStatusWithStoppedClock(t *testing.T) {
	frozen := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewDeliveryRequestRepository(newTestDB(t))
	repo.WithClock(func() time.Time { return frozen })

	id, err := repo.Create(context.Background(), newRequest("Marie"))
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(context.Background(), id, valueobject.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(frozen))

	// Из completed можно вернуться назад
	back, err := repo.UpdateStatus(context.Background(), id, valueobject.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, valueobject.StatusPending, back.Status)
	assert.True(t, back.UpdatedAt.After(updated.UpdatedAt))
}

func TestDeliveryRequestRepository_UpdateStatusUnknownID(t *testing.T) {
	repo := NewDeliveryRequestRepository(newTestDB(t))

	id, err := repo.Create(context.Background(), newRequest("Marie"))
	require.NoError(t, err)

	_, err = repo.UpdateStatus(context.Background(), "req_42", valueobject.StatusCompleted)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, valueobject.StatusPending, list[0].Status)
}

func TestDeliveryRequestRepository_BackendFailureIsPersistenceError(t *testing.T) {
	conn := newTestDB(t)
	repo := NewDeliveryRequestRepository(conn)
	require.NoError(t, conn.Close())

	_, err := repo.Create(context.Background(), newRequest("Marie"))
	require.Error(t, err)
	assert.True(t, apperror.IsPersistence(err))

	_, err = repo.List(context.Background())
	assert.True(t, apperror.IsPersistence(err))

	_, err = repo.UpdateStatus(context.Background(), "x", valueobject.StatusFinding)
	assert.True(t, apperror.IsPersistence(err))
}

func TestNextUpdatedAt(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, nextUpdatedAt(base.Add(time.Second), base).Equal(base.Add(time.Second)))
	assert.True(t, nextUpdatedAt(base, base).Equal(base.Add(time.Microsecond)))
	assert.True(t, nextUpdatedAt(base.Add(-time.Hour), base).Equal(base.Add(time.Microsecond)))
}
