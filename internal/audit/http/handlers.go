package audithttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	"github.com/odyssey-erp/odyssey-rbac/internal/platform/httpx"
)

const (
	dateLayout        = "2006-01-02"
	maxDateRangeHours = 24 * 366
	maxPage           = 100_000
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
}

// Guard applies the authorization gate to the audit routes.
type Guard interface {
	RequireAuth(next http.Handler) http.Handler
	RequirePrimaryAdmin(next http.Handler) http.Handler
}

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	guard   Guard
}

// NewHandler builds a new audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, guard Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		var v validationError
		if errors.As(err, &v) {
			httpx.Problem(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), "Invalid "+v.field)
			return
		}
		h.handleServerError(w, "parse audit filters", err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	var filters audit.TimelineFilters

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return audit.TimelineFilters{}, validationError{field: "from"}
		}
		filters.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return audit.TimelineFilters{}, validationError{field: "to"}
		}
		// inclusive day
		filters.To = to.Add(24 * time.Hour)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if !filters.From.Before(filters.To) {
			return audit.TimelineFilters{}, validationError{field: "range"}
		}
		if filters.To.Sub(filters.From) > maxDateRangeHours*time.Hour {
			return audit.TimelineFilters{}, validationError{field: "range"}
		}
	}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > maxPage {
			return audit.TimelineFilters{}, validationError{field: "page"}
		}
		filters.Page = parsed
	}
	if v := strings.TrimSpace(q.Get("pageSize")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return audit.TimelineFilters{}, validationError{field: "pageSize"}
		}
		filters.PageSize = parsed
	}

	filters.Actor = strings.TrimSpace(q.Get("actor"))
	filters.Entity = strings.TrimSpace(q.Get("entity"))
	filters.Action = strings.TrimSpace(q.Get("action"))
	return filters, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "Failed to load audit events")
}

type validationError struct {
	field string
}

func (validationError) Error() string {
	return "validation failed"
}
