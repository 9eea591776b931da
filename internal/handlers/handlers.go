package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/logger"
	"github.com/Eventstwogo/events-backend-sub002/internal/scheduler"

	"github.com/gin-gonic/gin"
)

type JobRunner interface {
	Jobs() []scheduler.Status
	Trigger(id string) error
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
	ValidateConnectionPool()
}

// SearchChecker reports the state of the event search cluster.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handlers struct {
	jobs    JobRunner
	db      HealthChecker
	search  SearchChecker
	service string
}

func NewHandlers(jobs JobRunner, db HealthChecker, service string) *Handlers {
	return &Handlers{
		jobs:    jobs,
		db:      db,
		service: service,
	}
}

// WithSearch adds the search cluster to the health report.
func (h *Handlers) WithSearch(search SearchChecker) *Handlers {
	h.search = search
	return h
}

// ListJobsResponse - список зарегистрированных задач
type ListJobsResponse struct {
	Jobs []scheduler.Status `json:"jobs"`
}

// ListJobs - GET /api/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, ListJobsResponse{Jobs: h.jobs.Jobs()})
}

// RunJob - POST /api/jobs/:id/run
// Запустить задачу вне расписания
func (h *Handlers) RunJob(c *gin.Context) {
	id := c.Param("id")

	err := h.jobs.Trigger(id)
	switch {
	case err == nil:
		logger.WithContext(c.Request.Context()).Info("Job triggered manually", "job", id)
		c.JSON(http.StatusAccepted, gin.H{"job": id, "status": "started"})
	case errors.Is(err, scheduler.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, scheduler.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, scheduler.ErrNotStarted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	check := h.db.HealthCheck(c.Request.Context())
	h.db.ValidateConnectionPool()

	status := http.StatusOK
	if !check.Healthy() {
		status = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":   check.Status,
		"service":  h.service,
		"database": check,
	}

	// Search is optional: a failing cluster is reported but does not fail the probe.
	if h.search != nil {
		search := gin.H{"status": "healthy"}
		if err := h.search.HealthCheck(c.Request.Context()); err != nil {
			search = gin.H{"status": "unhealthy", "error": err.Error()}
		}
		body["search"] = search
	}

	c.JSON(status, body)
}
