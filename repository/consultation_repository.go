package repository

import (
	"context"
	"fmt"

	"lawconsult-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConsultationRepository handles database operations for the history log
type ConsultationRepository struct {
	db *pgxpool.Pool
}

// NewConsultationRepository creates a new consultation repository
func NewConsultationRepository(db *pgxpool.Pool) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// Create stores a completed consultation
func (r *ConsultationRepository) Create(ctx context.Context, record *models.ConsultationRecord) error {
	query := `
		INSERT INTO consultations (id, query, result_json)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query, record.ID, record.Query, record.Result).
		Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// List returns all consultations, newest first
func (r *ConsultationRepository) List(ctx context.Context) ([]models.ConsultationRecord, error) {
	query := `
		SELECT id, query, result_json, created_at
		FROM consultations
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	var records []models.ConsultationRecord
	for rows.Next() {
		var rec models.ConsultationRecord
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating consultations: %w", err)
	}

	return records, nil
}

// Delete removes one consultation by id
func (r *ConsultationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM consultations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	return nil
}
