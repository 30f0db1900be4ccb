package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
)

// SubjectRepository handles database operations for subjects
type SubjectRepository struct {
	db *pgxpool.Pool
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{
		db: db,
	}
}

const subjectColumns = `id, name, class_name, academic_year, first_evaluator_id, second_evaluator_id, created_by, created_at`

func scanSubject(row pgx.Row) (*models.Subject, error) {
	var subject models.Subject
	err := row.Scan(
		&subject.ID,
		&subject.Name,
		&subject.ClassName,
		&subject.AcademicYear,
		&subject.FirstEvaluatorID,
		&subject.SecondEvaluatorID,
		&subject.CreatedBy,
		&subject.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create creates a new subject
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	query := `
		INSERT INTO subjects (name, class_name, academic_year, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		subject.Name, subject.ClassName, subject.AcademicYear, subject.CreatedBy).
		Scan(&subject.ID, &subject.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating subject: %w", err)
	}

	return nil
}

// GetByID retrieves a subject by ID
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`

	subject, err := scanSubject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error retrieving subject: %w", err)
	}

	return subject, nil
}

// GetAll retrieves all subjects ordered by creation time
func (r *SubjectRepository) GetAll(ctx context.Context) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

// GetAssignedTo retrieves all subjects where the given user holds the given
// evaluator slot.
func (r *SubjectRepository) GetAssignedTo(ctx context.Context, userID int64, slot models.EvaluatorSlot) ([]*models.Subject, error) {
	column := "first_evaluator_id"
	if slot == models.SlotSecond {
		column = "second_evaluator_id"
	}

	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE ` + column + ` = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

// AssignEvaluator sets or clears one evaluator slot. A nil userID clears the
// slot. Runs inside the caller's transaction so an assignment never lands half
// applied next to other changes.
func (r *SubjectRepository) AssignEvaluator(ctx context.Context, tx pgx.Tx, subjectID int64, slot models.EvaluatorSlot, userID *int64) error {
	column := "first_evaluator_id"
	if slot == models.SlotSecond {
		column = "second_evaluator_id"
	}

	query := `UPDATE subjects SET ` + column + ` = $1 WHERE id = $2`

	cmdTag, err := tx.Exec(ctx, query, userID, subjectID)
	if err != nil {
		return fmt.Errorf("error assigning evaluator: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubjectNotFound
	}

	return nil
}

// Delete deletes a subject by ID. Scripts, question papers and rubrics under
// it go with it via ON DELETE CASCADE.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting subject: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubjectNotFound
	}

	return nil
}

// CountScripts returns the number of scripts registered under a subject
func (r *SubjectRepository) CountScripts(ctx context.Context, subjectID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM scripts WHERE subject_id = $1`, subjectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting scripts: %w", err)
	}

	return count, nil
}
