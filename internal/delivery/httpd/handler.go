package httpd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/service"
)

type Handler struct {
	assignmentService service.AssignmentService
	submissionService service.SubmissionService
	overrideService   service.OverrideService
	statsService      service.StatsService
	teacherService    service.TeacherService
	authProvider      AuthProvider
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewHandler(
	assignmentService service.AssignmentService,
	submissionService service.SubmissionService,
	overrideService service.OverrideService,
	statsService service.StatsService,
	teacherService service.TeacherService,
	authProvider AuthProvider,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		assignmentService: assignmentService,
		submissionService: submissionService,
		overrideService:   overrideService,
		statsService:      statsService,
		teacherService:    teacherService,
		authProvider:      authProvider,
		validate:          validator.New(),
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(h.authMiddleware)

		api.Route("/assignments", func(r chi.Router) {
			r.Get("/mine", h.GetMyAssignments)
			r.Get("/{id}", h.GetAssignmentByID)
			r.Post("/{id}/submissions", h.SubmitResponse)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/", h.CreateAssignment)
				r.Get("/", h.GetAllAssignments)
				r.Put("/{id}", h.UpdateAssignment)
				r.Post("/complete", h.BulkCompleteAssignments)
				r.Post("/{id}/complete", h.CompleteAssignment)
				r.Post("/{id}/cancel", h.CancelAssignment)
				r.Post("/{id}/fork", h.ForkAssignment)
				r.Put("/{id}/teachers/{teacherID}/status", h.RecordTeacherStatus)
				r.Get("/{id}/statuses", h.GetAssignmentStatuses)
			})
		})

		api.Route("/teachers", func(r chi.Router) {
			r.Get("/{id}/stats", h.GetTeacherStats)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/", h.CreateTeacher)
				r.Get("/", h.GetAllTeachers)
				r.Get("/{id}", h.GetTeacherByID)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "assignment-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperrors.KindAuthorization:
		writeError(w, http.StatusForbidden, err.Error())
	case apperrors.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperrors.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
