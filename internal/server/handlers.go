package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/notion"
	"github.com/spigell/workload-radar/internal/recommend"
	"github.com/spigell/workload-radar/internal/report"
	"github.com/spigell/workload-radar/internal/workload"
)

const (
	codeInvalidQuery        = "invalid_query"
	codeUpstreamRejected    = "upstream_rejected"
	codeUpstreamUnreachable = "upstream_unreachable"
	codeUpstreamMalformed   = "upstream_malformed"
	codeFetchFailed         = "fetch_failed"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Data is the empty rendering of the endpoint on upstream failures.
	Data any `json:"data,omitempty"`
}

type peopleResponse struct {
	People []workload.Person `json:"people"`
	Count  int               `json:"count"`
}

type itemsResponse struct {
	Items []workload.WorkItem `json:"items"`
	Count int                 `json:"count"`
}

type alertsResponse struct {
	Alerts []dashboard.Alert `json:"alerts"`
}

type skillsResponse struct {
	Skills   []string `json:"skills"`
	Projects []string `json:"projects"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"service": service,
	})
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	filters := []dashboard.Filter{
		dashboard.NewProject(r.URL.Query().Get("project")),
		dashboard.NewSkills(listParam(r, "skill")),
	}

	s.withDataset(w, r, func(ds *workload.Dataset) any {
		people := dashboard.Run(r.Context(), s.logger, filters, ds.People)
		return peopleResponse{People: people, Count: len(people)}
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	s.withDataset(w, r, func(ds *workload.Dataset) any {
		return itemsResponse{Items: ds.Items, Count: len(ds.Items)}
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.withDataset(w, r, func(ds *workload.Dataset) any {
		return dashboard.Summarize(ds)
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.withDataset(w, r, func(ds *workload.Dataset) any {
		return alertsResponse{Alerts: dashboard.Alerts(ds, s.thresholds)}
	})
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	s.withDataset(w, r, func(ds *workload.Dataset) any {
		return skillsResponse{Skills: dashboard.Skills(ds.People), Projects: dashboard.Projects(ds.People)}
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	query, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidQuery, err.Error(), nil)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRecommendation()
	}

	s.withDataset(w, r, func(ds *workload.Dataset) any {
		return recommend.Recommend(query, ds.People)
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Get(r.Context())
	if err != nil {
		if ds == nil {
			ds = workload.Empty()
		}
		s.writeUpstreamError(w, err, report.New(ds, s.now()))
		return
	}

	doc := report.New(ds, s.now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	w.WriteHeader(http.StatusOK)
	if err := doc.Encode(w); err != nil {
		s.logger.Error("failed to encode report", zap.Error(err))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Refresh(r.Context())
	if err != nil {
		if ds == nil {
			ds = workload.Empty()
		}
		s.writeUpstreamError(w, err, dashboard.Summarize(ds))
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveDataset(ds)
	}
	s.writeJSON(w, http.StatusOK, dashboard.Summarize(ds))
}

// withDataset renders the current dataset. On upstream failure it answers
// 502 with the rendering of the empty dataset in the error body.
func (s *Server) withDataset(w http.ResponseWriter, r *http.Request, render func(ds *workload.Dataset) any) {
	ds, err := s.loader.Get(r.Context())
	if err != nil {
		if ds == nil {
			ds = workload.Empty()
		}
		s.writeUpstreamError(w, err, render(ds))
		return
	}

	s.writeJSON(w, http.StatusOK, render(ds))
}

func (s *Server) parseQuery(r *http.Request) (recommend.Query, error) {
	q := recommend.Query{
		Skills: listParam(r, "skills"),
		TopK:   s.topK,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("top")); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("top must be an integer: %w", err)
		}
		q.TopK = top
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("hours")); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("hours must be a number: %w", err)
		}
		q.Hours = hours
	}

	return q, q.Validate()
}

// listParam accepts both repeated and comma-separated values.
func listParam(r *http.Request, name string) []string {
	out := make([]string, 0)
	for _, value := range r.URL.Query()[name] {
		out = append(out, workload.SplitSkills(value)...)
	}
	return out
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, err error, data any) {
	code := codeFetchFailed
	switch {
	case errors.Is(err, notion.ErrUpstreamRejection):
		code = codeUpstreamRejected
	case errors.Is(err, notion.ErrTransport):
		code = codeUpstreamUnreachable
	case errors.Is(err, notion.ErrDecode):
		code = codeUpstreamMalformed
	}

	s.logger.Warn("serving empty dataset", zap.String("code", code), zap.Error(err))
	s.writeError(w, http.StatusBadGateway, code, err.Error(), data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, data any) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message, Data: data})
}
