package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
)

// ContentStore is the extracted content lookup needed by the matching service
type ContentStore interface {
	GetQuestionPaper(ctx context.Context, id int64) (*models.QuestionPaper, error)
	GetQuestionContent(ctx context.Context, questionPaperID int64) ([]*models.QuestionContent, error)
	FindRubricForPaper(ctx context.Context, paper *models.QuestionPaper) (*models.Rubric, error)
	GetRubricContent(ctx context.Context, rubricID int64) ([]*models.RubricContent, error)
}

// MatchingService aligns a question paper's extracted questions with the
// grading criteria of its rubric. Questions and criteria are keyed by
// question number; the union of both key sets is returned so a question
// without a criterion (and vice versa) still shows up with the missing side
// null.
type MatchingService struct {
	contentStore ContentStore
}

// NewMatchingService creates a new matching service
func NewMatchingService(contentStore ContentStore) *MatchingService {
	return &MatchingService{
		contentStore: contentStore,
	}
}

// Match builds the question-to-rubric alignment for a question paper
func (s *MatchingService) Match(ctx context.Context, questionPaperID int64) (*dto.MatchResponse, error) {
	paper, err := s.contentStore.GetQuestionPaper(ctx, questionPaperID)
	if err != nil {
		return nil, err
	}

	questions, err := s.contentStore.GetQuestionContent(ctx, questionPaperID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving question content: %w", err)
	}

	rubric, err := s.contentStore.FindRubricForPaper(ctx, paper)
	if err != nil {
		return nil, err
	}

	var criteria []*models.RubricContent
	if rubric != nil {
		criteria, err = s.contentStore.GetRubricContent(ctx, rubric.ID)
		if err != nil {
			return nil, fmt.Errorf("error retrieving rubric content: %w", err)
		}
	}

	questionsByKey := make(map[string]*models.QuestionContent)
	for _, q := range questions {
		questionsByKey[NormalizeQuestionKey(q.QuestionNumber)] = q
	}
	criteriaByKey := make(map[string]*models.RubricContent)
	for _, c := range criteria {
		criteriaByKey[NormalizeQuestionKey(c.QuestionNumber)] = c
	}

	keys := make([]string, 0, len(questionsByKey)+len(criteriaByKey))
	seen := make(map[string]bool)
	for key := range questionsByKey {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range criteriaByKey {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sortQuestionKeys(keys)

	rows := make([]dto.MatchRow, 0, len(keys))
	for _, key := range keys {
		row := dto.MatchRow{QuestionNumber: key}

		if q, ok := questionsByKey[key]; ok {
			text := q.QuestionText
			row.QuestionText = &text
		}
		if c, ok := criteriaByKey[key]; ok {
			text := c.CriteriaText
			row.CriteriaText = &text
			row.MaxMarks = criterionMaxMarks(c)
		}

		rows = append(rows, row)
	}

	response := &dto.MatchResponse{
		QuestionPaperID: questionPaperID,
		Rows:            rows,
	}
	if rubric != nil {
		response.RubricID = &rubric.ID
	}

	return response, nil
}

// NormalizeQuestionKey canonicalizes a question number so "Q1", "q1." and "1"
// all land on the same key.
func NormalizeQuestionKey(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "QUESTION")
	key = strings.TrimPrefix(key, "Q")
	key = strings.TrimSpace(key)
	key = strings.TrimRight(key, ".):")
	return key
}

// sortQuestionKeys orders keys by their leading integer, ties broken by the
// raw string. Keys with no leading digits sort after numbered ones.
func sortQuestionKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		ni, oki := leadingInt(keys[i])
		nj, okj := leadingInt(keys[j])
		if oki && okj {
			if ni != nj {
				return ni < nj
			}
			return keys[i] < keys[j]
		}
		if oki != okj {
			return oki
		}
		return keys[i] < keys[j]
	})
}

// leadingInt parses the run of digits at the start of a key
func leadingInt(key string) (int, bool) {
	end := 0
	for end < len(key) && key[end] >= '0' && key[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(key[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

var (
	// "5 marks", "2.5 Marks", "[10 M]", "(3m)"
	marksSuffixRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:marks?|m)\b`)
	// "marks: 5", "Marks - 10"
	marksPrefixRe = regexp.MustCompile(`(?i)\bmarks?\s*[:\-]?\s*(\d+(?:\.\d+)?)`)
)

// criterionMaxMarks resolves the maximum marks of a criterion. The stored
// value wins; otherwise the weight is extracted from the criteria text. No
// match yields nil, never zero.
func criterionMaxMarks(c *models.RubricContent) *float64 {
	if c.MaxMarks != nil {
		return c.MaxMarks
	}
	return ExtractMaxMarks(c.CriteriaText)
}

// ExtractMaxMarks pulls a numeric mark weight out of free-form criteria text
func ExtractMaxMarks(text string) *float64 {
	for _, re := range []*regexp.Regexp{marksSuffixRe, marksPrefixRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}
	return nil
}
