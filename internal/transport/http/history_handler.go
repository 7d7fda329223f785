package http

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "freightpulse/internal/errors"
)

// periodPattern matches the canonical YYYY-MM period token.
var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// HistoryHandler serves the historical time series.
type HistoryHandler struct {
	service      AnalyticsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(service AnalyticsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *HistoryHandler {
	return &HistoryHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "history_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the history routes.
func (h *HistoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetHistory)
	r.Get("/latest", h.GetLatest)

	r.Route("/{period}", func(r chi.Router) {
		r.Use(h.PeriodCtx)
		r.Get("/", h.GetPeriod)
	})

	return r
}

// PeriodCtx middleware validates the period parameter.
func (h *HistoryHandler) PeriodCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		period := chi.URLParam(r, "period")
		if !periodPattern.MatchString(period) {
			h.errorHandler.HandleError(w, r,
				apierrors.NewValidationError("period must be formatted as YYYY-MM", nil).
					WithContext("period", period))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHistory returns every historical record, ascending by period.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GetLatest returns the most recent historical record.
func (h *HistoryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	record, found, err := h.service.Latest(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !found {
		h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError("history is empty", nil))
		return
	}

	render.JSON(w, r, record)
}

// GetPeriod returns the historical record for one period.
func (h *HistoryHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")

	records, err := h.service.History(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	for _, record := range records {
		if record.Period == period {
			render.JSON(w, r, record)
			return
		}
	}

	h.errorHandler.HandleError(w, r,
		apierrors.NewNotFoundError("no record for period", nil).WithContext("period", period))
}
