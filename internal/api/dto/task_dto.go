package dto

import (
	"time"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

// DeadlineLayout is the accepted deadline format, e.g. 2025-01-31T23:59.
const DeadlineLayout = "2006-01-02T15:04"

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Course      string    `json:"course"`
	Description string    `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	ProofImage  string    `json:"proofImage,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTaskResponse maps a task to its response.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Course:      t.Course,
		Description: t.Description,
		Deadline:    t.Deadline,
		ProofImage:  t.ProofImage,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
