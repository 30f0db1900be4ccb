package main

import (
	"os"

	_ "github.com/blindgrade/blindgrade/docs"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
	"github.com/blindgrade/blindgrade/internal/server"
)

// @title BlindGrade API
// @version 1.0
// @description Double-blind evaluation workflow for academic answer scripts. A custodian registers subjects and scripts and assigns two independent evaluators; each evaluator submits marks without seeing the other's, and the final mark is the average of both.

// @contact.name BlindGrade Support
// @contact.email support@blindgrade.app

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}
