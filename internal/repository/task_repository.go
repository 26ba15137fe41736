package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

// TaskRepository encapsulates task persistence. Every read and write is scoped to the
// owning user.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, userID, id string) error
	GetForUser(ctx context.Context, userID, id string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Task, error)
}

type taskRepository struct {
	db DBTX
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, user_id, title, course, description, deadline, proof_image, status, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (user_id, title, course, description, deadline, proof_image, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		task.UserID,
		task.Title,
		task.Course,
		task.Description,
		task.Deadline,
		task.ProofImage,
		string(task.Status),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	return storeError("create task", err)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, course=$2, description=$3, deadline=$4, proof_image=$5,
            status=$6, updated_at=NOW()
        WHERE id=$7 AND user_id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		task.Title,
		task.Course,
		task.Description,
		task.Deadline,
		task.ProofImage,
		string(task.Status),
		task.ID,
		task.UserID,
	).Scan(&task.UpdatedAt)
	return storeError("update task", err)
}

func (r *taskRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM tasks WHERE id=$1 AND user_id=$2`
	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return storeError("delete task", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) GetForUser(ctx context.Context, userID, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1 AND user_id=$2`
	task, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, storeError("get task", err)
	}
	return task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id=$1 ORDER BY deadline ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	defer rows.Close()

	result := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeError("scan task", err)
		}
		result = append(result, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list tasks", err)
	}
	return result, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Course,
		&task.Description,
		&task.Deadline,
		&task.ProofImage,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
