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

// ContentRepository reads extracted question and rubric content. Rows are
// written by the upstream extraction pipeline; this side only queries them.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{
		db: db,
	}
}

// GetQuestionPaper retrieves a question paper by ID
func (r *ContentRepository) GetQuestionPaper(ctx context.Context, id int64) (*models.QuestionPaper, error) {
	query := `
		SELECT id, subject_id, title, file_path, total_questions, uploaded_at
		FROM question_papers
		WHERE id = $1
	`

	var paper models.QuestionPaper
	err := r.db.QueryRow(ctx, query, id).Scan(
		&paper.ID,
		&paper.SubjectID,
		&paper.Title,
		&paper.FilePath,
		&paper.TotalQuestions,
		&paper.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionPaperNotFound
		}
		return nil, fmt.Errorf("error retrieving question paper: %w", err)
	}

	return &paper, nil
}

// GetQuestionContent retrieves all extracted questions of a paper
func (r *ContentRepository) GetQuestionContent(ctx context.Context, questionPaperID int64) ([]*models.QuestionContent, error) {
	query := `
		SELECT id, question_paper_id, question_number, question_text, page_number, created_at
		FROM question_contents
		WHERE question_paper_id = $1
	`

	rows, err := r.db.Query(ctx, query, questionPaperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*models.QuestionContent
	for rows.Next() {
		var content models.QuestionContent
		if err := rows.Scan(
			&content.ID,
			&content.QuestionPaperID,
			&content.QuestionNumber,
			&content.QuestionText,
			&content.PageNumber,
			&content.CreatedAt,
		); err != nil {
			return nil, err
		}
		contents = append(contents, &content)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contents, nil
}

// FindRubricForPaper resolves the rubric to grade a paper against. A rubric
// scoped to the paper's subject wins; a paper without a subject falls back to
// the most recently uploaded global rubric. Returns nil with no error when no
// rubric exists at all.
func (r *ContentRepository) FindRubricForPaper(ctx context.Context, paper *models.QuestionPaper) (*models.Rubric, error) {
	var query string
	var args []interface{}

	if paper.SubjectID != nil {
		query = `
			SELECT id, subject_id, title, file_path, uploaded_at
			FROM rubrics
			WHERE subject_id = $1
			ORDER BY uploaded_at DESC
			LIMIT 1
		`
		args = []interface{}{*paper.SubjectID}
	} else {
		query = `
			SELECT id, subject_id, title, file_path, uploaded_at
			FROM rubrics
			WHERE subject_id IS NULL
			ORDER BY uploaded_at DESC
			LIMIT 1
		`
	}

	var rubric models.Rubric
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&rubric.ID,
		&rubric.SubjectID,
		&rubric.Title,
		&rubric.FilePath,
		&rubric.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving rubric: %w", err)
	}

	return &rubric, nil
}

// GetRubricContent retrieves all extracted criteria of a rubric
func (r *ContentRepository) GetRubricContent(ctx context.Context, rubricID int64) ([]*models.RubricContent, error) {
	query := `
		SELECT id, rubric_id, question_number, criteria_text, max_marks, created_at
		FROM rubric_contents
		WHERE rubric_id = $1
	`

	rows, err := r.db.Query(ctx, query, rubricID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*models.RubricContent
	for rows.Next() {
		var content models.RubricContent
		if err := rows.Scan(
			&content.ID,
			&content.RubricID,
			&content.QuestionNumber,
			&content.CriteriaText,
			&content.MaxMarks,
			&content.CreatedAt,
		); err != nil {
			return nil, err
		}
		contents = append(contents, &content)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contents, nil
}
