package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classward/compliance/assignment-service/internal/models"
)

func (h *Handler) CompleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	identity := identityFrom(r.Context())

	if err := h.overrideService.MarkCompleted(r.Context(), assignmentID, identity.SubjectID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment marked completed",
	})
}

func (h *Handler) BulkCompleteAssignments(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := identityFrom(r.Context())

	changed, err := h.overrideService.BulkMarkCompleted(r.Context(), req.AssignmentIDs, identity.SubjectID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, models.BulkCompleteResponse{
		Completed: changed,
		Requested: len(req.AssignmentIDs),
	})
}

func (h *Handler) ForkAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")

	var req models.ForkAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := identityFrom(r.Context())

	fork, err := h.overrideService.Fork(r.Context(), assignmentID, identity.SubjectID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    fork,
	})
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")

	var req models.UpdateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := identityFrom(r.Context())

	assignment, err := h.overrideService.UpdateContent(r.Context(), assignmentID, identity.SubjectID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}
