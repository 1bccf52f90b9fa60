package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/api/internal/export"
	"tally/api/internal/web"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/" {
		view, err := s.service.Page(
			r.Context(),
			r.URL.Query().Get("community"),
			r.URL.Query().Get("year"),
			r.URL.Query().Get("period"),
			r.URL.Query().Get("section_id"),
		)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		html, err := web.RenderPage(view)
		if err != nil {
			log.Printf("render page: %v", err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not render page", nil)
			return
		}
		writeHTML(w, http.StatusOK, html)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/switch" {
		view, err := s.service.SectionFragment(
			r.Context(),
			r.URL.Query().Get("community"),
			r.URL.Query().Get("year"),
			r.URL.Query().Get("period"),
			r.URL.Query().Get("section_id"),
		)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		html, err := web.RenderSection(view)
		if err != nil {
			log.Printf("render section: %v", err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not render section", nil)
			return
		}
		writeHTML(w, http.StatusOK, html)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/save" {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body", nil)
			return
		}
		row, err := s.service.Save(r.Context(), SaveInput{
			Community:   r.PostFormValue("community"),
			Year:        r.PostFormValue("year"),
			Period:      r.PostFormValue("period"),
			SectionID:   r.PostFormValue("section_id"),
			IndicatorID: r.PostFormValue("indicator_id"),
			Value:       r.PostFormValue("value"),
		})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		html, err := web.RenderRow(row)
		if err != nil {
			log.Printf("render row: %v", err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not render row", nil)
			return
		}
		writeHTML(w, http.StatusOK, html)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/review" {
		view, err := s.service.Review(
			r.Context(),
			r.URL.Query().Get("community"),
			r.URL.Query().Get("year"),
			r.URL.Query().Get("period"),
		)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		html, err := web.RenderReview(view)
		if err != nil {
			log.Printf("render review: %v", err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not render review", nil)
			return
		}
		writeHTML(w, http.StatusOK, html)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/download_report" {
		community := r.URL.Query().Get("community")
		year := r.URL.Query().Get("year")
		period := r.URL.Query().Get("period")

		var result *export.Result
		var err error
		if r.URL.Query().Get("format") == "pdf" {
			result, err = s.service.DownloadPDF(r.Context(), community, year, period)
			if errors.Is(err, export.ErrPDFDependencyMissing) {
				writeError(w, http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available", nil)
				return
			}
		} else {
			result, err = s.service.DownloadCSV(r.Context(), community, year, period)
		}
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}

		w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
		w.Header().Set("Content-Type", result.MimeType)
		w.Write(result.Data)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/indicators/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": s.service.SearchIndicators(q, limit)})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/catalog/history" {
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		commits, err := s.service.CatalogHistory(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not load catalog history", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commits": commits})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
