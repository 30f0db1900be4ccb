package services

import (
	"github.com/blindgrade/blindgrade/internal/app/auth"
	"github.com/blindgrade/blindgrade/internal/app/repositories"
	"github.com/blindgrade/blindgrade/internal/db"
	jwtauth "github.com/blindgrade/blindgrade/internal/pkg/auth"
)

// Services holds all the service instances
type Services struct {
	AuthService       *AuthService
	SubjectService    *SubjectService
	EvaluationService *EvaluationService
	MatchingService   *MatchingService
}

// NewServices initializes all services
func NewServices(repos *repositories.Repositories, database *db.PostgresDB, jwtService *jwtauth.JWTService) *Services {
	authzService := auth.NewAuthorizationService(repos.UserRepository, repos.SubjectRepository)

	return &Services{
		AuthService: NewAuthService(repos.UserRepository, repos.TokenRepository, jwtService),
		SubjectService: NewSubjectService(
			repos.SubjectRepository,
			repos.ScriptRepository,
			repos.UserRepository,
			repos.MarkRepository,
			authzService,
			database,
		),
		EvaluationService: NewEvaluationService(
			repos.ScriptRepository,
			repos.MarkRepository,
			repos.SubjectRepository,
			repos.ContentRepository,
			authzService,
			database,
		),
		MatchingService: NewMatchingService(repos.ContentRepository),
	}
}
