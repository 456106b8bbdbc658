package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/service"
)

type stubAuthProvider struct {
	identity *Identity
}

func (p *stubAuthProvider) Resolve(string) (*Identity, error) {
	return p.identity, nil
}

type stubAssignmentService struct {
	service.AssignmentService
	assignment *models.Assignment
	entries    []models.TeacherStatusEntry
}

func (s *stubAssignmentService) GetByID(context.Context, string) (*models.Assignment, error) {
	return s.assignment, nil
}

func (s *stubAssignmentService) ListStatuses(context.Context, string) ([]models.TeacherStatusEntry, error) {
	return s.entries, nil
}

func newDetailFixture(t *testing.T, identity *Identity, assignments *stubAssignmentService) *chi.Mux {
	t.Helper()
	handler := NewHandler(assignments, nil, nil, nil, nil, &stubAuthProvider{identity: identity}, zerolog.Nop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func getAssignmentDetail(t *testing.T, router *chi.Mux, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/"+id, nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetAssignmentByIDVisibility(t *testing.T) {
	due := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	closeAt := due.Add(72 * time.Hour)
	publishAt := due.Add(-48 * time.Hour)

	unpublished := func(status models.AssignmentStatus) *models.Assignment {
		return &models.Assignment{
			ID:          "a-1",
			Title:       "Not yet published",
			Attachments: []string{},
			PublishDate: &publishAt,
			DueDate:     due,
			CloseDate:   closeAt,
			Status:      status,
			CreatedBy:   "admin-1",
			Version:     1,
			AssignedTo:  []string{"t-1"},
		}
	}

	t.Run("recipient cannot read an unpublished assignment", func(t *testing.T) {
		for _, status := range []models.AssignmentStatus{
			models.AssignmentStatusScheduled,
			models.AssignmentStatusPublishing,
			models.AssignmentStatusPublicationError,
		} {
			t.Run(status.String(), func(t *testing.T) {
				router := newDetailFixture(t,
					&Identity{SubjectID: "t-1", Role: RoleTeacher},
					&stubAssignmentService{assignment: unpublished(status)},
				)

				rec := getAssignmentDetail(t, router, "a-1")
				require.Equal(t, http.StatusNotFound, rec.Code)
				require.NotContains(t, rec.Body.String(), "Not yet published")
			})
		}
	})

	t.Run("administrator sees the scheduled assignment", func(t *testing.T) {
		router := newDetailFixture(t,
			&Identity{SubjectID: "admin-1", Role: RoleAdmin},
			&stubAssignmentService{assignment: unpublished(models.AssignmentStatusScheduled)},
		)

		rec := getAssignmentDetail(t, router, "a-1")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Not yet published")
	})

	t.Run("recipient sees a published assignment with their resolved status", func(t *testing.T) {
		active := unpublished(models.AssignmentStatusActive)
		router := newDetailFixture(t,
			&Identity{SubjectID: "t-1", Role: RoleTeacher},
			&stubAssignmentService{
				assignment: active,
				entries: []models.TeacherStatusEntry{
					{TeacherID: "t-1", ResolvedStatus: "pending"},
				},
			},
		)

		rec := getAssignmentDetail(t, router, "a-1")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data models.TeacherAssignmentView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "pending", body.Data.ResolvedStatus)
	})

	t.Run("non-recipient is refused", func(t *testing.T) {
		router := newDetailFixture(t,
			&Identity{SubjectID: "t-9", Role: RoleTeacher},
			&stubAssignmentService{assignment: unpublished(models.AssignmentStatusActive)},
		)

		rec := getAssignmentDetail(t, router, "a-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
