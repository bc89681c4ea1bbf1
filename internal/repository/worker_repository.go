package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository/common"
)

// WorkerRepository owns reads and writes of the workers table.
type WorkerRepository struct {
	db *sqlx.DB
}

func NewWorkerRepository(db *sqlx.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

const workerColumns = `
	id, shop_id, name, rating, is_available, unavailable_reason,
	response_time_minutes, distance_km, created_at, updated_at
`

// GetByID returns a worker by identifier.
func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	var worker models.Worker
	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = $1`
	if err := sqlx.GetContext(ctx, common.Ext(ctx, r.db), &worker, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("worker repository: get by id %w", err)
	}
	return &worker, nil
}

// ListAvailableByShop returns every available worker of a shop. Ranking
// happens in the matching engine, not here.
func (r *WorkerRepository) ListAvailableByShop(ctx context.Context, shopID uuid.UUID) ([]models.Worker, error) {
	var workers []models.Worker
	query := `SELECT ` + workerColumns + ` FROM workers WHERE shop_id = $1 AND is_available = TRUE`
	if err := sqlx.SelectContext(ctx, common.Ext(ctx, r.db), &workers, query, shopID); err != nil {
		return nil, fmt.Errorf("worker repository: list available by shop %w", err)
	}
	return workers, nil
}

// SetAvailability flips the availability flag. An unavailable worker always
// carries a reason, "unknown" when none was given.
func (r *WorkerRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool, reason string) error {
	var unavailableReason *string
	if !available {
		if reason == "" {
			reason = "unknown"
		}
		unavailableReason = &reason
	}

	query := `
		UPDATE workers
		SET is_available = $2, unavailable_reason = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := common.Ext(ctx, r.db).ExecContext(ctx, query, id, available, unavailableReason)
	if err != nil {
		return fmt.Errorf("worker repository: set availability %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("worker repository: set availability rows %w", err)
	}
	if affected == 0 {
		return ErrWorkerNotFound
	}
	return nil
}
