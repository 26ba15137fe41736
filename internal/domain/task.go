package domain

import "time"

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "Belum Selesai"
	TaskStatusDone    TaskStatus = "Selesai"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusDone
}

// Task is a course assignment owned by a user.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Course      string
	Description string
	Deadline    time.Time
	ProofImage  string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
