package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classward/compliance/assignment-service/internal/models"
)

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	identity := identityFrom(r.Context())

	if identity.Role != RoleTeacher {
		writeError(w, http.StatusForbidden, "Only teachers can submit responses")
		return
	}

	var req models.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.submissionService.Submit(r.Context(), assignmentID, identity.SubjectID, req.Files)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    response,
	})
}

// RecordTeacherStatus lets an administrator set one teacher's status
// directly. The assignment's own coarse status is not touched by this call.
func (h *Handler) RecordTeacherStatus(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	teacherID := chi.URLParam(r, "teacherID")

	var req models.RecordStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.submissionService.RecordTeacherStatus(
		r.Context(),
		assignmentID,
		teacherID,
		models.TeacherStatus(req.Status),
	)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Teacher status recorded successfully",
	})
}
