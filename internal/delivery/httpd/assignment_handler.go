package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity := identityFrom(r.Context())

	assignment, err := h.assignmentService.Create(r.Context(), identity.SubjectID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    assignment,
	})
}

func (h *Handler) GetAllAssignments(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.AssignmentFilter{
		Status:    r.URL.Query().Get("status"),
		Search:    r.URL.Query().Get("search"),
		TeacherID: r.URL.Query().Get("teacher_id"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	if filter.Status != "" && !models.IsValidAssignmentStatus(filter.Status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	response, err := h.assignmentService.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

// GetMyAssignments is the recipient view: each item carries the status
// resolved live for the calling teacher.
func (h *Handler) GetMyAssignments(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	response, err := h.assignmentService.ListForTeacher(
		r.Context(),
		identity.SubjectID,
		r.URL.Query().Get("status"),
		r.URL.Query().Get("search"),
	)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	identity := identityFrom(r.Context())

	assignment, err := h.assignmentService.GetByID(r.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if identity.Role == RoleAdmin {
		writeSuccess(w, assignment)
		return
	}

	// Unpublished items do not exist from a recipient's point of view,
	// even for teachers already on the recipient snapshot.
	switch assignment.Status {
	case models.AssignmentStatusScheduled, models.AssignmentStatusPublishing, models.AssignmentStatusPublicationError:
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	if !assignment.IsAssignedTo(identity.SubjectID) {
		writeError(w, http.StatusForbidden, "teacher is not assigned to this assignment")
		return
	}

	entries, err := h.assignmentService.ListStatuses(r.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	view := models.TeacherAssignmentView{Assignment: *assignment}
	for i := range entries {
		if entries[i].TeacherID == identity.SubjectID {
			view.ResolvedStatus = entries[i].ResolvedStatus
			view.Response = entries[i].Response
			break
		}
	}

	writeSuccess(w, view)
}

func (h *Handler) GetAssignmentStatuses(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")

	entries, err := h.assignmentService.ListStatuses(r.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assignment_id": assignmentID,
		"statuses":      entries,
	})
}

func (h *Handler) CancelAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	identity := identityFrom(r.Context())

	if err := h.assignmentService.Cancel(r.Context(), assignmentID, identity.SubjectID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment cancelled successfully",
	})
}
