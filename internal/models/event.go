package models

type AssignmentPublishedEvent struct {
	AssignmentID string   `json:"assignment_id"`
	Title        string   `json:"title"`
	TeacherIDs   []string `json:"teacher_ids"`
	DueDate      int64    `json:"due_date"`
	CloseDate    int64    `json:"close_date"`
	Timestamp    int64    `json:"timestamp"`
}

type AssignmentCompletedEvent struct {
	AssignmentID string   `json:"assignment_id"`
	CompletedBy  string   `json:"completed_by"`
	TeacherIDs   []string `json:"teacher_ids"`
	Timestamp    int64    `json:"timestamp"`
}
