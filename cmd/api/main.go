package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/branchops/expense-service/internal/config"
	"github.com/branchops/expense-service/internal/handler"
	"github.com/branchops/expense-service/internal/integrations/centralbank"
	"github.com/branchops/expense-service/internal/middleware"
	"github.com/branchops/expense-service/internal/repository"
	"github.com/branchops/expense-service/internal/service"
	"github.com/branchops/expense-service/internal/settlement"
	"github.com/branchops/expense-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, logger, cfg)
	sender := email.NewSender(cfg, logger)
	rates := centralbank.NewClient(cfg, logger)
	calendar := settlement.NewCalendar(cfg.BusinessTZOffset)
	alerts := service.NewAlertService(repo, sender, rates, calendar, logger)
	h := handler.NewHandler(svc, alerts)

	// Schedule the daily alert evaluation pass. Re-runs are safe: delivery
	// dedupes on the idempotency key.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AlertCron, func() {
		if _, err := alerts.Run(); err != nil {
			logger.Errorf("Alert evaluation failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule alert evaluation: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/branches", h.CreateBranch).Methods("POST")
	authRouter.HandleFunc("/branches/{id}/expenses", h.ListExpenses).Methods("GET")
	authRouter.HandleFunc("/expenses", h.CreateExpense).Methods("POST")
	authRouter.HandleFunc("/expenses/{id}", h.GetExpense).Methods("GET")
	authRouter.HandleFunc("/expenses/{id}", h.UpdateExpense).Methods("PUT")
	authRouter.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods("DELETE")
	authRouter.HandleFunc("/expenses/{id}/payments", h.ApplyPayment).Methods("POST")
	authRouter.HandleFunc("/payments/{id}", h.RemovePayment).Methods("DELETE")
	authRouter.HandleFunc("/alert-rules", h.ListAlertRules).Methods("GET")
	authRouter.HandleFunc("/alert-rules", h.CreateAlertRule).Methods("POST")
	authRouter.HandleFunc("/alerts/run", h.RunAlerts).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
