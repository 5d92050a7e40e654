package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/examforge/examforge/internal/api/http"
	"github.com/examforge/examforge/internal/auth"
	"github.com/examforge/examforge/internal/config"
	"github.com/examforge/examforge/internal/db"
	"github.com/examforge/examforge/internal/eventlog"
	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/extract"
	"github.com/examforge/examforge/internal/importer"
	"github.com/examforge/examforge/internal/storage"
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
	store := exam.NewSQLStore(dbh)
	events := eventlog.NewRepo(dbh)
	svc := exam.NewService(store, exam.NewGenerator(), events)

	// --- Import pipeline ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	doc := extract.NewPDFToText()
	doc.Timeout = cfg.ExtractTimeout
	img := extract.NewTesseract(cfg.OCRLang)
	img.Timeout = cfg.ExtractTimeout
	pipeline := importer.New(doc, img, bs, cfg.MaxLabel)

	// --- Auth ---
	authSvc := auth.NewService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Teacher API (import, confirm, generate).
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Post("/imports", api.ImportHandler(pipeline))

		pr.Post("/tests", api.ConfirmTestHandler(svc))
		pr.Get("/tests", api.ListTestsHandler(svc))
		pr.Get("/tests/{testID}", api.GetTestHandler(svc))

		pr.Post("/tests/{testID}/variants", api.GenerateVariantsHandler(svc))
		pr.Post("/tests/{testID}/variants/regenerate", api.RegenerateVariantsHandler(svc))
		pr.Get("/tests/{testID}/variants", api.ListVariantsHandler(svc))
	})

	// Scan/print collaborators look variants up by code.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/variants/{code}", api.GetVariantHandler(svc))
		pr.Post("/variants/{code}/grade", api.GradeScanHandler(svc))
	})

	log.Printf("examforged listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
