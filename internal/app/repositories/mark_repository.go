package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blindgrade/blindgrade/internal/app/models"
)

// MarkRepository handles database operations for per-question marks
type MarkRepository struct {
	db *pgxpool.Pool
}

// NewMarkRepository creates a new mark repository
func NewMarkRepository(db *pgxpool.Pool) *MarkRepository {
	return &MarkRepository{
		db: db,
	}
}

// Upsert inserts or overwrites the mark for one question of a script. The
// unique key is (script_id, question_number), so re-marking a question
// replaces the previous entry.
func (r *MarkRepository) Upsert(ctx context.Context, mark *models.Mark) error {
	query := `
		INSERT INTO marks (script_id, question_paper_id, question_number, marks_awarded, max_marks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (script_id, question_number)
		DO UPDATE SET marks_awarded = EXCLUDED.marks_awarded,
		              max_marks = EXCLUDED.max_marks,
		              question_paper_id = EXCLUDED.question_paper_id
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		mark.ScriptID,
		mark.QuestionPaperID,
		mark.QuestionNumber,
		mark.MarksAwarded,
		mark.MaxMarks,
	).Scan(&mark.ID, &mark.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting mark: %w", err)
	}

	return nil
}

// GetByScript retrieves all marks of a script ordered by question number
func (r *MarkRepository) GetByScript(ctx context.Context, scriptID int64) ([]*models.Mark, error) {
	query := `
		SELECT id, script_id, question_paper_id, question_number, marks_awarded, max_marks, created_at
		FROM marks
		WHERE script_id = $1
		ORDER BY question_number
	`

	rows, err := r.db.Query(ctx, query, scriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var marks []*models.Mark
	for rows.Next() {
		var mark models.Mark
		if err := rows.Scan(
			&mark.ID,
			&mark.ScriptID,
			&mark.QuestionPaperID,
			&mark.QuestionNumber,
			&mark.MarksAwarded,
			&mark.MaxMarks,
			&mark.CreatedAt,
		); err != nil {
			return nil, err
		}
		marks = append(marks, &mark)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return marks, nil
}

// GetTotals sums the awarded and maximum marks stored for a script
func (r *MarkRepository) GetTotals(ctx context.Context, scriptID int64) (awarded, max float64, questions int, err error) {
	query := `
		SELECT COALESCE(SUM(marks_awarded), 0), COALESCE(SUM(max_marks), 0), COUNT(*)
		FROM marks
		WHERE script_id = $1
	`

	err = r.db.QueryRow(ctx, query, scriptID).Scan(&awarded, &max, &questions)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("error computing mark totals: %w", err)
	}

	return awarded, max, questions, nil
}
