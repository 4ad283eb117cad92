package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.withSession)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/employees", s.handleEmployees)
		r.Get("/employee/{id}", s.handleEmployee)
		r.Get("/search", s.handleSearch)
		r.Get("/photo/{id}", s.handlePhoto)

		r.Get("/settings", s.handleGetSettings)
		r.With(s.requireAuth).Post("/settings", s.handlePostSettings)

		r.Get("/auth-check", s.handleAuthCheck)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Post("/set-top-user", s.handleSetTopUser)
		r.With(s.requireAuth).Post("/set-multiline-enabled", s.handleSetMultiline)
		r.With(s.requireAuth).Post("/reset-all-settings", s.handleResetSettings)
		r.With(s.requireAuth).Post("/update-now", s.handleUpdateNow)
		r.With(s.requireAuth).Get("/metadata/options", s.handleMetadataOptions)

		r.Get("/export-xlsx", s.handleExportXLSX)
		r.Get("/export/{format}", s.handleExport)
	})
	return r
}

// requestID tags each request with an id, reusing a valid incoming one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
