package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/sqlite"
)

// StatusHistoryRepository implements port.StatusHistoryRepository
type StatusHistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewStatusHistoryRepository creates a new history repository
func NewStatusHistoryRepository(db *sqlite.DB, logger *zap.Logger) *StatusHistoryRepository {
	return &StatusHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *StatusHistoryRepository) Create(ctx context.Context, history *entity.StatusHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}

	query := `
		INSERT INTO merchant_status_history (
			id, merchant_id, previous_status, new_status,
			actor_id, actor_email, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.ID,
		history.MerchantID,
		history.PreviousStatus,
		history.NewStatus,
		history.ActorID,
		history.ActorEmail,
		history.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}
	return nil
}

// GetByMerchantID retrieves all history records for a merchant, oldest first
func (r *StatusHistoryRepository) GetByMerchantID(ctx context.Context, merchantID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, merchant_id, previous_status, new_status,
			actor_id, actor_email, timestamp
		FROM merchant_status_history
		WHERE merchant_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, merchantID)
	if err != nil {
		r.logger.Error("Failed to get history by merchant ID", zap.String("merchant_id", merchantID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.StatusHistory{}
	for rows.Next() {
		var record entity.StatusHistory
		err := rows.Scan(
			&record.ID,
			&record.MerchantID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.ActorID,
			&record.ActorEmail,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.StatusHistoryRepository = (*StatusHistoryRepository)(nil)
