package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository    *UserRepository
	TokenRepository   *TokenRepository
	SubjectRepository *SubjectRepository
	ScriptRepository  *ScriptRepository
	MarkRepository    *MarkRepository
	ContentRepository *ContentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:    NewUserRepository(db),
		TokenRepository:   NewTokenRepository(db),
		SubjectRepository: NewSubjectRepository(db),
		ScriptRepository:  NewScriptRepository(db),
		MarkRepository:    NewMarkRepository(db),
		ContentRepository: NewContentRepository(db),
	}
}
