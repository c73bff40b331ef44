package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"finanzas/internal/errs"
)

func (s *Server) handleProblematicCategory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	diagnostic := s.deps.Reports.MostProblematic(r.Context(), userID)
	respondJSON(w, http.StatusOK, diagnostic)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, r, errs.NewValidationError("user_id query parameter is required"))
		return
	}

	trends, err := s.deps.Reports.MonthlyTrend(r.Context(), userID)
	if err != nil {
		respondError(w, r, fmt.Errorf("build monthly report: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, trends)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, r, errs.NewValidationError("user_id query parameter is required"))
		return
	}

	statement, err := s.deps.Statements.BuildStatement(r.Context(), userID)
	if err != nil {
		respondError(w, r, fmt.Errorf("build statement: %w", err))
		return
	}

	doc, err := s.deps.Renderer.Render(statement)
	if err != nil {
		respondError(w, r, fmt.Errorf("render statement: %w", err))
		return
	}

	filename := fmt.Sprintf("reporte_%s_%s.pdf", userID, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
