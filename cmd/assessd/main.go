package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/coursebuilder/assess/internal/api/http"
	"github.com/coursebuilder/assess/internal/assess"
	"github.com/coursebuilder/assess/internal/audit"
	auth "github.com/coursebuilder/assess/internal/auth/middleware"
	"github.com/coursebuilder/assess/internal/config"
	"github.com/coursebuilder/assess/internal/db"
	"github.com/coursebuilder/assess/internal/grading"
	"github.com/coursebuilder/assess/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := assess.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewLog(dbh)

	engine := grading.NewEngine(
		grading.WithAllOrNothingCutoff(cfg.AllOrNothingCutoff),
		grading.WithResponseTrimming(cfg.TrimResponses),
	)
	svc := assess.NewService(store, engine, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.XSRFTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.AdminCreds{
		User:     cfg.AdminUser,
		PassHash: cfg.AdminPassHash,
	}))

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/xsrf", auth.XSRFHandler(authSvc))

		// Authoring
		pr.With(rbac.Require("assessment:create")).
			Post("/assessments", api.UploadAssessmentHandler(svc))
		pr.With(rbac.Require("assessment:list")).
			Get("/assessments", api.ListAssessmentsHandler(svc))

		// Delivery
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments/{assessmentID}", api.GetAssessmentHandler(svc))
		pr.With(rbac.Require("answer:submit")).
			Post("/answer", api.AnswerHandler(svc, authSvc))

		// Dashboards
		pr.With(rbac.RequireAny("submission:view-own", "submissions:list")).
			Get("/submissions", api.ListSubmissionsHandler(svc))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(svc))
		pr.With(rbac.Require("events:list")).
			Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("assessd listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
