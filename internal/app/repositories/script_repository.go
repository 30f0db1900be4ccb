package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/pkg/apperrors"
	"github.com/blindgrade/blindgrade/internal/pkg/dberrors"
)

// ScriptRepository handles database operations for answer scripts
type ScriptRepository struct {
	db *pgxpool.Pool
}

// NewScriptRepository creates a new script repository
func NewScriptRepository(db *pgxpool.Pool) *ScriptRepository {
	return &ScriptRepository{
		db: db,
	}
}

const scriptColumns = `id, subject_id, question_paper_id, student_name, roll_number, class_name, file_path, status, teacher_marks, external_marks, final_marks, remarks, uploaded_at`

// scanScript scans one script row, normalizing legacy status aliases stored by
// earlier versions.
func scanScript(row pgx.Row) (*models.Script, error) {
	var script models.Script
	var rawStatus string
	err := row.Scan(
		&script.ID,
		&script.SubjectID,
		&script.QuestionPaperID,
		&script.StudentName,
		&script.RollNumber,
		&script.ClassName,
		&script.FilePath,
		&rawStatus,
		&script.TeacherMarks,
		&script.ExternalMarks,
		&script.FinalMarks,
		&script.Remarks,
		&script.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	script.Status = models.NormalizeScriptStatus(rawStatus)
	return &script, nil
}

// Create registers a new script. Status always starts at UPLOADED regardless
// of what the caller set on the model.
func (r *ScriptRepository) Create(ctx context.Context, script *models.Script) error {
	query := `
		INSERT INTO scripts (subject_id, question_paper_id, student_name, roll_number, class_name, file_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`

	script.Status = models.StatusUploaded
	err := r.db.QueryRow(ctx, query,
		script.SubjectID,
		script.QuestionPaperID,
		script.StudentName,
		script.RollNumber,
		script.ClassName,
		script.FilePath,
		script.Status,
	).Scan(&script.ID, &script.UploadedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrSubjectNotFound
		}
		return fmt.Errorf("error creating script: %w", err)
	}

	return nil
}

// GetByID retrieves a script by ID
func (r *ScriptRepository) GetByID(ctx context.Context, id int64) (*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE id = $1`

	script, err := scanScript(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrScriptNotFound
		}
		return nil, fmt.Errorf("error retrieving script: %w", err)
	}

	return script, nil
}

// GetByIDForUpdate retrieves a script inside a transaction with a row lock, so
// concurrent mark submissions against the same script serialize.
func (r *ScriptRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE id = $1 FOR UPDATE`

	script, err := scanScript(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrScriptNotFound
		}
		return nil, fmt.Errorf("error retrieving script: %w", err)
	}

	return script, nil
}

// GetBySubject retrieves all scripts under a subject ordered by upload time
func (r *ScriptRepository) GetBySubject(ctx context.Context, subjectID int64) ([]*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE subject_id = $1 ORDER BY uploaded_at, id`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*models.Script
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scripts, nil
}

// SaveEvaluation persists the mark fields and status of a script inside the
// caller's transaction. Marks, final average, remarks and status move as one
// write.
func (r *ScriptRepository) SaveEvaluation(ctx context.Context, tx pgx.Tx, script *models.Script) error {
	query := `
		UPDATE scripts
		SET teacher_marks = $1, external_marks = $2, final_marks = $3, remarks = $4, status = $5
		WHERE id = $6
	`

	cmdTag, err := tx.Exec(ctx, query,
		script.TeacherMarks,
		script.ExternalMarks,
		script.FinalMarks,
		script.Remarks,
		script.Status,
		script.ID,
	)
	if err != nil {
		return fmt.Errorf("error saving evaluation: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrScriptNotFound
	}

	return nil
}

// GetByStatus retrieves all scripts in the given status ordered by upload time
func (r *ScriptRepository) GetByStatus(ctx context.Context, status models.ScriptStatus) ([]*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE status = $1 ORDER BY uploaded_at, id`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*models.Script
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scripts, nil
}

// SaveReport finalizes a script through the single-evaluator path. Only the
// remarks and the terminal status move; the per-question totals stay in the
// marks table and final_marks remains reserved for the dual-evaluation mean.
func (r *ScriptRepository) SaveReport(ctx context.Context, scriptID int64, remarks *string) error {
	query := `
		UPDATE scripts
		SET remarks = $1, status = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, remarks, models.StatusEvaluated, scriptID)
	if err != nil {
		return fmt.Errorf("error saving report: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrScriptNotFound
	}

	return nil
}
