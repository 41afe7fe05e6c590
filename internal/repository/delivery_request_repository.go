package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/repository/common"
)

// DeliveryRequestRepository шлюз хранения заявок. Вызывающий код зависит только от этих трёх операций.
type DeliveryRequestRepository interface {
	Create(ctx context.Context, req *models.DeliveryRequest) (string, error)
	List(ctx context.Context) ([]models.DeliveryRequest, error)
	UpdateStatus(ctx context.Context, id string, status valueobject.RequestStatus) (*models.DeliveryRequest, error)
}

// SQLDeliveryRequestRepository реализация поверх sqlx; работает и с Postgres, и с SQLite.
type SQLDeliveryRequestRepository struct {
	db    *sqlx.DB
	clock common.Clock
	newID func() string
}

var _ DeliveryRequestRepository = (*SQLDeliveryRequestRepository)(nil)

// NewDeliveryRequestRepository создаёт новый экземпляр.
func NewDeliveryRequestRepository(db *sqlx.DB) *SQLDeliveryRequestRepository {
	return &SQLDeliveryRequestRepository{
		db:    db,
		clock: common.SystemClock,
		newID: uuid.NewString,
	}
}

// WithClock подменяет источник времени.
func (r *SQLDeliveryRequestRepository) WithClock(clock common.Clock) *SQLDeliveryRequestRepository {
	r.clock = clock
	return r
}

const deliveryRequestColumns = `id, client_name, client_phone, description, category, budget, image, status, created_at, updated_at`

// Create присваивает id и метки времени и сохраняет заявку одним INSERT.
func (r *SQLDeliveryRequestRepository) Create(ctx context.Context, req *models.DeliveryRequest) (string, error) {
	now := r.clock()
	row := *req
	row.ID = r.newID()
	row.CreatedAt = now
	row.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO delivery_requests (` + deliveryRequestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		row.ID,
		row.ClientName,
		row.ClientPhone,
		row.Description,
		row.Category,
		row.Budget,
		row.Image,
		row.Status,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return "", apperror.Persistence(fmt.Errorf("delivery request repository: insert: %w", err), "Impossible d'enregistrer la demande")
	}

	*req = row
	return row.ID, nil
}

// List возвращает свежий снимок всех заявок, новые первыми.
func (r *SQLDeliveryRequestRepository) List(ctx context.Context) ([]models.DeliveryRequest, error) {
	query := `SELECT ` + deliveryRequestColumns + ` FROM delivery_requests ORDER BY created_at DESC, id DESC`

	requests := []models.DeliveryRequest{}
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("delivery request repository: list: %w", err), "Impossible de charger les demandes")
	}

	for i := range requests {
		normalizeTimes(&requests[i])
	}

	return requests, nil
}

// UpdateStatus выставляет статус и сдвигает updated_at строго вперёд.
func (r *SQLDeliveryRequestRepository) UpdateStatus(ctx context.Context, id string, status valueobject.RequestStatus) (*models.DeliveryRequest, error) {
	var updated models.DeliveryRequest

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		selectQuery := tx.Rebind(`SELECT ` + deliveryRequestColumns + ` FROM delivery_requests WHERE id = ?`)
		if err := tx.GetContext(ctx, &updated, selectQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrRequestNotFound
			}
			return fmt.Errorf("delivery request repository: get: %w", err)
		}
		normalizeTimes(&updated)

		updated.Status = status
		updated.UpdatedAt = nextUpdatedAt(r.clock(), updated.UpdatedAt)

		updateQuery := tx.Rebind(`UPDATE delivery_requests SET status = ?, updated_at = ? WHERE id = ?`)
		if _, err := tx.ExecContext(ctx, updateQuery, updated.Status, updated.UpdatedAt, id); err != nil {
			return fmt.Errorf("delivery request repository: update status: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.Persistence(err, "Impossible de mettre à jour le statut")
	}

	return &updated, nil
}

// nextUpdatedAt гарантирует строгий рост updated_at даже при совпадении или откате часов.
func nextUpdatedAt(now, previous time.Time) time.Time {
	if now.After(previous) {
		return now
	}
	return previous.Add(time.Microsecond)
}

// normalizeTimes приводит время из драйвера к UTC.
func normalizeTimes(req *models.DeliveryRequest) {
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
}
