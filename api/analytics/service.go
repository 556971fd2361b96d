package analytics

import (
	"log"
	"net/http"

	"CscxSaas/internal/serviceiface"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewAnalyticsService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &AnalyticsService{config: cfg, pool: pool}
}

func (s *AnalyticsService) Name() string {
	return "analytics"
}

func (s *AnalyticsService) Start() error {
	go StartAnalyticsService(s.pool)
	return nil
}

func (s *AnalyticsService) Stop() error {
	return nil
}

func StartAnalyticsService(pool *pgxpool.Pool) {
	router := mux.NewRouter()
	router.HandleFunc("/analytics/payment-patterns", AnalyzePaymentsHandler(pool)).Methods("POST")
	router.HandleFunc("/analytics/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Analytics Service"))
	})

	log.Println("Analytics Service started on :4243")
	if err := http.ListenAndServe(":4243", router); err != nil {
		log.Fatalf("Analytics Service failed: %v", err)
	}
}
