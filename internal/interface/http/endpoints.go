package http

import (
	"net/http"
	"time"

	"github.com/edualert/edualert/internal/application/query"
	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "edualert",
		"version": "v1",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

// handleHealth runs the full health check suite.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, status)
}

// handleReady indicates whether the service can serve traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "Service dependencies are unhealthy")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive is a liveness probe. It succeeds as long as the process
// responds, independent of dependency health.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleStudentSituation returns the school situation of one student:
// per-subject averages, absence counts, risk state and optionally the
// individual grade and absence rows.
//
// GET /api/v1/students/{id}/situation?year=2024&include_rows=true
func (s *Server) handleStudentSituation(w http.ResponseWriter, r *http.Request) {
	if s.deps.SituationHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Student situation queries are not available")
		return
	}

	q := query.GetStudentSituationQuery{
		StudentID:    r.PathValue("id"),
		AcademicYear: getQueryParamInt(r, "year", 0),
		IncludeRows:  getQueryParamBool(r, "include_rows"),
	}

	result, err := s.deps.SituationHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, "GetStudentSituation", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePlacements returns a placement board for one study class or one
// school unit.
//
// GET /api/v1/placements/{scope}/{id}?period=sem1&limit=10
func (s *Server) handlePlacements(w http.ResponseWriter, r *http.Request) {
	if s.deps.PlacementsHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Placement queries are not available")
		return
	}

	q := query.GetPlacementsQuery{
		Scope:   r.PathValue("scope"),
		ScopeID: r.PathValue("id"),
		Period:  getQueryParam(r, "period", ""),
		Limit:   getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.PlacementsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, "GetPlacements", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRiskReport returns the dropout-risk report for a school unit,
// a study class, or country-wide counts.
//
// GET /api/v1/risk/report?school_unit=...&class=...&year=2024&min_level=2
func (s *Server) handleRiskReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.RiskReportHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Risk report queries are not available")
		return
	}

	q := query.GetRiskReportQuery{
		SchoolUnitID: getQueryParam(r, "school_unit", ""),
		StudyClassID: getQueryParam(r, "class", ""),
		AcademicYear: getQueryParamInt(r, "year", 0),
		MinLevel:     getQueryParamInt(r, "min_level", 0),
	}

	result, err := s.deps.RiskReportHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, "GetRiskReport", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeQueryError maps domain errors to HTTP status codes.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("query failed",
			logger.Err(err),
			logger.Operation(operation),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Query execution failed")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB ADMINISTRATION ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// jobInfoDTO is the API representation of a scheduled job.
type jobInfoDTO struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	RunCount    int64      `json:"run_count"`
	FailCount   int64      `json:"fail_count"`
}

// jobRunDTO is the API representation of a single job execution.
type jobRunDTO struct {
	JobName     string    `json:"job_name"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMS  int64     `json:"duration_ms"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// handleListJobs returns all registered background jobs and their state.
//
// GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Scheduler is not running in this process")
		return
	}

	infos := s.deps.Scheduler.ListJobs()

	dtos := make([]jobInfoDTO, 0, len(infos))
	for _, info := range infos {
		dto := jobInfoDTO{
			Name:        info.Name,
			Description: info.Description,
			Enabled:     info.Enabled,
			Schedule:    info.Schedule,
			RunCount:    info.RunCount,
			FailCount:   info.FailCount,
		}
		if !info.LastRun.IsZero() {
			lastRun := info.LastRun
			dto.LastRun = &lastRun
		}
		if !info.NextRun.IsZero() {
			nextRun := info.NextRun
			dto.NextRun = &nextRun
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":              dtos,
		"scheduler_running": s.deps.Scheduler.IsRunning(),
	})
}

// handleRunJob triggers a job immediately, outside its schedule.
//
// POST /api/v1/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Scheduler is not running in this process")
		return
	}

	jobName := r.PathValue("name")

	s.logger.Info("manual job trigger",
		logger.JobName(jobName),
		logger.String("request_id", getRequestID(r.Context())),
	)

	result, err := s.deps.Scheduler.RunNow(r.Context(), jobName)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "job_not_found", err.Error())
		return
	}

	dto := jobRunDTO{
		JobName:     result.JobName,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		DurationMS:  result.Duration.Milliseconds(),
		Success:     result.Success,
	}
	if result.Error != nil {
		dto.Error = result.Error.Error()
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, dto)
}
