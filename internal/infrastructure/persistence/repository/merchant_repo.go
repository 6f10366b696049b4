package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/sqlite"
)

const merchantColumns = `id, status, business_entity_type, business, personal, product, bank, vpa, kyc_docs, created_at, updated_at`

// MerchantRepository implements port.MerchantRepository
type MerchantRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *sqlite.DB, logger *zap.Logger) *MerchantRepository {
	return &MerchantRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a merchant record and assigns its identity
func (r *MerchantRepository) Create(ctx context.Context, merchant *entity.Merchant) error {
	if merchant.ID == "" {
		merchant.ID = uuid.NewString()
	}
	if merchant.Status == "" {
		merchant.Status = entity.StatusPending
	}
	merchant.Draft.Normalize()
	now := r.now()
	merchant.CreatedAt = now
	merchant.UpdatedAt = now

	args := []interface{}{merchant.ID, merchant.Status, merchant.BusinessEntityType}
	for _, s := range entity.Sections {
		encoded, err := encodeFields(merchant.Section(s))
		if err != nil {
			return err
		}
		args = append(args, encoded)
	}
	args = append(args, now, now)

	query := `INSERT INTO merchants (` + merchantColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create merchant", zap.Error(err))
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

// GetByID retrieves a merchant, or nil when missing
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*entity.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = ?`

	merchant, err := scanMerchant(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get merchant by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return merchant, nil
}

// Patch rewrites only the columns of the sections named in patch
func (r *MerchantRepository) Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error) {
	var (
		sets []string
		args []interface{}
	)
	if patch.BusinessEntityType != nil {
		sets = append(sets, "business_entity_type = ?")
		args = append(args, *patch.BusinessEntityType)
	}
	for _, s := range entity.Sections {
		fields, ok := patch.Sections[s]
		if !ok {
			continue
		}
		encoded, err := encodeFields(fields)
		if err != nil {
			return nil, err
		}
		sets = append(sets, sectionColumns[s]+" = ?")
		args = append(args, encoded)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	query := `UPDATE merchants SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to patch merchant", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to patch merchant: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// UpdateStatus sets the review status
func (r *MerchantRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	query := `UPDATE merchants SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, status, r.now(), id)
	if err != nil {
		r.logger.Error("Failed to update status", zap.String("id", id), zap.String("status", status.String()), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}
	return requireAffected(result)
}

// List returns merchants matching filter, newest first
func (r *MerchantRepository) List(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := likePattern(term)
		where = append(where, `(
			LOWER(COALESCE(json_extract(business, '$.brandName'), '')) LIKE ? ESCAPE '\' OR
			LOWER(COALESCE(json_extract(business, '$.legalName'), '')) LIKE ? ESCAPE '\' OR
			LOWER(COALESCE(json_extract(personal, '$.name'), '')) LIKE ? ESCAPE '\' OR
			LOWER(COALESCE(json_extract(personal, '$.email'), '')) LIKE ? ESCAPE '\'
		)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := `SELECT ` + merchantColumns + ` FROM merchants`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list merchants", zap.Error(err))
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	defer rows.Close()

	merchants := []*entity.Merchant{}
	for rows.Next() {
		merchant, err := scanMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		merchants = append(merchants, merchant)
	}
	return merchants, rows.Err()
}

// CountByStatus counts merchants per status
func (r *MerchantRepository) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM merchants GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to count merchants", zap.Error(err))
		return nil, fmt.Errorf("failed to count merchants: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.Status]int)
	for rows.Next() {
		var (
			status entity.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Delete removes a merchant record
func (r *MerchantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM merchants WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete merchant", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete merchant: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMerchant(row rowScanner) (*entity.Merchant, error) {
	var (
		m        entity.Merchant
		sections [6]string
	)
	err := row.Scan(
		&m.ID,
		&m.Status,
		&m.BusinessEntityType,
		&sections[0],
		&sections[1],
		&sections[2],
		&sections[3],
		&sections[4],
		&sections[5],
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for i, s := range entity.Sections {
		fields, err := decodeFields(sections[i])
		if err != nil {
			return nil, err
		}
		m.SetSection(s, fields)
	}
	return &m, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return nil
}

// Verify interface compliance
var _ port.MerchantRepository = (*MerchantRepository)(nil)
