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

const leadColumns = `id, name, nature_of_business, phone, company_name, date, created_at, updated_at`

// LeadRepository implements port.LeadRepository
type LeadRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sqlite.DB, logger *zap.Logger) *LeadRepository {
	return &LeadRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a lead
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Notes == nil {
		lead.Notes = []entity.Note{}
	}

	query := `INSERT INTO leads (` + leadColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.NatureOfBusiness,
		lead.Phone,
		lead.CompanyName,
		lead.Date,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create lead", zap.Error(err))
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead with its notes, or nil when missing
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = ?`

	lead, err := scanLead(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get lead by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.Notes, err = r.notes(ctx, id); err != nil {
		return nil, err
	}
	return lead, nil
}

// List returns leads whose name, phone or company contain search, newest first
func (r *LeadRepository) List(ctx context.Context, search string) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []interface{}
	if term := strings.TrimSpace(search); term != "" {
		pattern := likePattern(term)
		query += ` WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(company_name) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list leads", zap.Error(err))
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	leads := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// notes are loaded after the lead cursor is closed; sqlite may run on a single connection
	for _, lead := range leads {
		if lead.Notes, err = r.notes(ctx, lead.ID); err != nil {
			return nil, err
		}
	}
	return leads, nil
}

// Delete removes a lead; its notes cascade
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete lead", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return requireAffected(result)
}

// AddNote appends a note to an existing lead
func (r *LeadRepository) AddNote(ctx context.Context, leadID string, note *entity.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		result, err := exec.ExecContext(txCtx, `UPDATE leads SET updated_at = ? WHERE id = ?`, time.Now().UTC(), leadID)
		if err != nil {
			return fmt.Errorf("failed to touch lead: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}

		query := `
			INSERT INTO lead_notes (id, lead_id, text, user_id, user_email, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err = exec.ExecContext(txCtx, query,
			note.ID,
			leadID,
			note.Text,
			note.UserID,
			note.UserEmail,
			note.CreatedAt.UTC(),
		)
		if err != nil {
			r.logger.Error("Failed to add note", zap.String("lead_id", leadID), zap.Error(err))
			return fmt.Errorf("failed to add note: %w", err)
		}
		return nil
	})
}

func (r *LeadRepository) notes(ctx context.Context, leadID string) ([]entity.Note, error) {
	query := `
		SELECT id, text, user_id, user_email, created_at
		FROM lead_notes
		WHERE lead_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	notes := []entity.Note{}
	for rows.Next() {
		var n entity.Note
		if err := rows.Scan(&n.ID, &n.Text, &n.UserID, &n.UserEmail, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.NatureOfBusiness,
		&l.Phone,
		&l.CompanyName,
		&l.Date,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Verify interface compliance
var _ port.LeadRepository = (*LeadRepository)(nil)
