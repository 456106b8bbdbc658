package models

import "time"

// Data Transfer Objects

type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	Attachments []string   `json:"attachments" validate:"dive,required"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	DueDate     time.Time  `json:"due_date" validate:"required"`
	CloseDate   time.Time  `json:"close_date" validate:"required"`
	IsGeneral   bool       `json:"is_general"`
	AssignedTo  []string   `json:"assigned_to" validate:"dive,uuid"`
}

type UpdateAssignmentRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Attachments []string   `json:"attachments,omitempty" validate:"omitempty,dive,required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	AssignedTo  []string   `json:"assigned_to,omitempty" validate:"omitempty,dive,uuid"`
}

type SubmitResponseRequest struct {
	Files []string `json:"files" validate:"required,min=1,dive,required"`
}

type RecordStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=delivered delivered_late not_delivered pending"`
}

type BulkCompleteRequest struct {
	AssignmentIDs []string `json:"assignment_ids" validate:"required,min=1,dive,uuid"`
}

type BulkCompleteResponse struct {
	Completed int `json:"completed"`
	Requested int `json:"requested"`
}

type ForkAssignmentRequest struct {
	TeacherID   string     `json:"teacher_id" validate:"required,uuid"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
}

type CreateTeacherRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type AssignmentsResponse struct {
	Assignments []Assignment `json:"assignments"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// TeacherAssignmentView pairs an assignment with the live status resolved
// for one teacher.
type TeacherAssignmentView struct {
	Assignment     Assignment `json:"assignment"`
	ResolvedStatus string     `json:"resolved_status"`
	Response       *Response  `json:"response,omitempty"`
}

type TeacherAssignmentsResponse struct {
	Assignments []TeacherAssignmentView `json:"assignments"`
	Total       int                     `json:"total"`
}

// TeacherStatusEntry is one row of the per-assignment resolved status list.
type TeacherStatusEntry struct {
	TeacherID      string    `json:"teacher_id"`
	ResolvedStatus string    `json:"resolved_status"`
	Response       *Response `json:"response,omitempty"`
}
