package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*models.Assignment
	claimErr    error
	updateErr   error
	forkErr     error
	publishErrs map[string]error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[string]*models.Assignment),
		publishErrs: make(map[string]error),
	}
}

func copyAssignment(a *models.Assignment) *models.Assignment {
	cp := *a
	cp.Attachments = append([]string{}, a.Attachments...)
	cp.AssignedTo = append([]string{}, a.AssignedTo...)
	return &cp
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[assignment.ID]; ok {
		return errors.New("duplicate assignment id")
	}
	r.assignments[assignment.ID] = copyAssignment(assignment)
	return nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	return copyAssignment(a), nil
}

func (r *fakeAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Assignment
	for _, a := range r.assignments {
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		out = append(out, *copyAssignment(a))
	}
	return out, len(out), nil
}

func (r *fakeAssignmentRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Assignment
	for _, a := range r.assignments {
		for _, id := range a.AssignedTo {
			if id == teacherID {
				out = append(out, *copyAssignment(a))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	current, ok := r.assignments[assignment.ID]
	if !ok || current.Version != assignment.Version {
		return apperrors.ErrVersionConflict
	}
	stored := copyAssignment(assignment)
	stored.Version++
	stored.AssignedTo = append([]string{}, current.AssignedTo...)
	r.assignments[assignment.ID] = stored
	assignment.Version++
	return nil
}

func (r *fakeAssignmentRepo) ReplaceRecipients(_ context.Context, assignmentID string, teacherIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[assignmentID]
	if !ok {
		return errors.New("assignment not found")
	}
	a.AssignedTo = append([]string{}, teacherIDs...)
	return nil
}

func (r *fakeAssignmentRepo) Fork(_ context.Context, fork, original *models.Assignment, teacherID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forkErr != nil {
		return r.forkErr
	}
	current, ok := r.assignments[original.ID]
	if !ok {
		return errors.New("assignment not found")
	}
	if current.Version != original.Version {
		return apperrors.ErrVersionConflict
	}
	if _, dup := r.assignments[fork.ID]; dup {
		return errors.New("duplicate assignment id")
	}

	r.assignments[fork.ID] = copyAssignment(fork)

	kept := current.AssignedTo[:0]
	for _, id := range current.AssignedTo {
		if id != teacherID {
			kept = append(kept, id)
		}
	}
	current.AssignedTo = kept
	current.UpdatedBy = original.UpdatedBy
	current.UpdatedAt = original.UpdatedAt
	current.Version++
	original.Version++
	return nil
}

func (r *fakeAssignmentRepo) ClaimScheduled(_ context.Context, now time.Time) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimErr != nil {
		return nil, r.claimErr
	}
	var claimed []models.Assignment
	for _, a := range r.assignments {
		if a.Status == models.AssignmentStatusScheduled && a.PublishDate != nil && !a.PublishDate.After(now) {
			a.Status = models.AssignmentStatusPublishing
			a.UpdatedAt = now
			a.Version++
			claimed = append(claimed, *copyAssignment(a))
		}
	}
	return claimed, nil
}

func (r *fakeAssignmentRepo) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.publishErrs[id]; err != nil {
		return err
	}
	a, ok := r.assignments[id]
	if !ok {
		return errors.New("assignment not found")
	}
	a.Status = models.AssignmentStatusActive
	a.PublishedAt = &publishedAt
	a.PublishError = nil
	a.Version++
	return nil
}

func (r *fakeAssignmentRepo) MarkPublicationError(_ context.Context, id, message string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return errors.New("assignment not found")
	}
	a.Status = models.AssignmentStatusPublicationError
	a.PublishError = &message
	a.UpdatedAt = at
	a.Version++
	return nil
}

func (r *fakeAssignmentRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.assignments[id]
	return ok, nil
}

type responseKey struct {
	assignmentID string
	teacherID    string
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[responseKey]*models.Response
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[responseKey]*models.Response)}
}

func copyResponse(r *models.Response) *models.Response {
	cp := *r
	cp.Files = append([]string{}, r.Files...)
	return &cp
}

func (r *fakeResponseRepo) Upsert(_ context.Context, response *models.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[responseKey{response.AssignmentID, response.TeacherID}] = copyResponse(response)
	return nil
}

func (r *fakeResponseRepo) GetByAssignmentAndTeacher(_ context.Context, assignmentID, teacherID string) (*models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[responseKey{assignmentID, teacherID}]
	if !ok {
		return nil, nil
	}
	return copyResponse(resp), nil
}

func (r *fakeResponseRepo) ListByAssignment(_ context.Context, assignmentID string) ([]models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Response
	for key, resp := range r.responses {
		if key.assignmentID == assignmentID {
			out = append(out, *copyResponse(resp))
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Response
	for key, resp := range r.responses {
		if key.teacherID == teacherID {
			out = append(out, *copyResponse(resp))
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) Delete(_ context.Context, assignmentID, teacherID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.responses, responseKey{assignmentID, teacherID})
	return nil
}

type fakeTeacherRepo struct {
	mu       sync.Mutex
	teachers map[string]*models.Teacher
	listErr  error
}

func newFakeTeacherRepo(ids ...string) *fakeTeacherRepo {
	r := &fakeTeacherRepo{teachers: make(map[string]*models.Teacher)}
	for _, id := range ids {
		r.teachers[id] = &models.Teacher{ID: id, Name: "Teacher " + id, Email: id + "@school.test", Active: true}
	}
	return r
}

func (r *fakeTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teachers[teacher.ID] = teacher
	return nil
}

func (r *fakeTeacherRepo) GetByID(_ context.Context, id string) (*models.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teachers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeacherRepo) GetByEmail(_ context.Context, email string) (*models.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teachers {
		if t.Email == email {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTeacherRepo) GetAll(_ context.Context, limit, offset int) ([]models.Teacher, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Teacher
	for _, t := range r.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *fakeTeacherRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.teachers[id]
	return ok, nil
}

func (r *fakeTeacherRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var ids []string
	for id, t := range r.teachers {
		if t.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeStatsRepo struct {
	mu      sync.Mutex
	stats   map[string]*models.TeacherStats
	upserts int
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*models.TeacherStats)}
}

func (r *fakeStatsRepo) Upsert(_ context.Context, stats *models.TeacherStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *stats
	r.stats[stats.TeacherID] = &cp
	r.upserts++
	return nil
}

func (r *fakeStatsRepo) GetByTeacher(_ context.Context, teacherID string) (*models.TeacherStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[teacherID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

type fakeFileClient struct {
	mu        sync.Mutex
	discarded [][]string
}

func (c *fakeFileClient) DeleteFile(_ context.Context, _ string) error {
	return nil
}

func (c *fakeFileClient) Discard(_ context.Context, fileIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discarded = append(c.discarded, append([]string{}, fileIDs...))
}

type fakePushClient struct {
	mu     sync.Mutex
	events []string
}

func (c *fakePushClient) Notify(_ context.Context, _ []string, event string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testNotifier() *Notifier {
	return NewNotifier(nil, &fakePushClient{}, testLogger())
}
