package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classward/compliance/assignment-service/internal/models"
)

func (h *Handler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	teacher, err := h.teacherService.CreateTeacher(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    teacher,
	})
}

func (h *Handler) GetAllTeachers(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	teachers, total, err := h.teacherService.GetAllTeachers(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"teachers": teachers,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *Handler) GetTeacherByID(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "id")

	teacher, err := h.teacherService.GetTeacherByID(r.Context(), teacherID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, teacher)
}

// GetTeacherStats serves the dashboard counters. Teachers can only read
// their own; administrators can read anyone's.
func (h *Handler) GetTeacherStats(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "id")
	identity := identityFrom(r.Context())

	if identity == nil || (identity.Role != RoleAdmin && identity.SubjectID != teacherID) {
		writeError(w, http.StatusForbidden, "Cannot read another teacher's stats")
		return
	}

	stats, err := h.statsService.GetStats(r.Context(), teacherID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, stats)
}
