package jobs

import (
	"fmt"
	"log"

	"CscxSaas/internal/logger"
	"CscxSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	analysisConfig := NewDefaultAnalysisConfig()

	// Override from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["analysis_schedule"].(string); ok && schedule != "" {
			analysisConfig.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			analysisConfig.TimeZone = tz
		}
	}

	if err := RunAnalysisScheduler(analysisConfig, s.db); err != nil {
		return fmt.Errorf("failed to start portfolio analysis scheduler: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with portfolio analysis scheduler")
	}
	log.Println("Cron service started — portfolio analysis scheduled")
	return nil
}

func (s *CronService) Stop() error {
	return nil
}
