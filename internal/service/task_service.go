package service

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/events"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/storage"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// FileStore persists task proof images.
type FileStore interface {
	Store(fh *multipart.FileHeader, taskID string) (string, error)
	Delete(name string) error
}

// TaskInput carries the editable fields of a task. File is optional.
type TaskInput struct {
	Title       string
	Course      string
	Description string
	Deadline    time.Time
	File        *multipart.FileHeader
}

// TaskService manages the tasks of the authenticated user.
type TaskService struct {
	tasks      repository.TaskRepository
	files      FileStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TaskDependencies bundles the collaborators of the task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	Files      FileStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		files:      deps.Files,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// IsAllowedImage reports whether the upload declares an accepted image type.
func IsAllowedImage(fh *multipart.FileHeader) bool {
	if fh == nil {
		return false
	}
	ct := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	_, ok := allowedImageTypes[ct]
	return ok
}

// List returns the tasks of userID ordered by deadline.
func (s *TaskService) List(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err, "task")
	}
	return tasks, nil
}

// Get returns one task owned by userID.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := s.tasks.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, mapStoreError(err, "task")
	}
	return task, nil
}

// Create stores a new pending task and its optional proof image.
func (s *TaskService) Create(ctx context.Context, userID string, in TaskInput) (*domain.Task, error) {
	if err := validateTaskInput(&in); err != nil {
		return nil, err
	}
	task := &domain.Task{
		UserID:      userID,
		Title:       in.Title,
		Course:      in.Course,
		Description: in.Description,
		Deadline:    in.Deadline,
		Status:      domain.TaskStatusPending,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, mapStoreError(err, "task")
	}

	if hasFile(in.File) {
		name, err := s.storeImage(in.File, task.ID)
		if err != nil {
			if delErr := s.tasks.Delete(ctx, userID, task.ID); delErr != nil {
				s.logger.Warn("rolling back task after failed upload", zap.String("task_id", task.ID), zap.Error(delErr))
			}
			return nil, err
		}
		task.ProofImage = name
		if err := s.tasks.Update(ctx, task); err != nil {
			s.discardImage(task.ID, name)
			if delErr := s.tasks.Delete(ctx, userID, task.ID); delErr != nil {
				s.logger.Warn("rolling back task after failed image update", zap.String("task_id", task.ID), zap.Error(delErr))
			}
			return nil, mapStoreError(err, "task")
		}
	}

	publish(ctx, s.dispatcher, s.logger, events.EventTaskCreated, userID, events.TaskPayload{TaskID: task.ID, Title: task.Title})
	return task, nil
}

// Update replaces the fields of a task. A new image replaces the previous one.
func (s *TaskService) Update(ctx context.Context, userID, id string, in TaskInput) (*domain.Task, error) {
	if err := validateTaskInput(&in); err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	task.Title = in.Title
	task.Course = in.Course
	task.Description = in.Description
	task.Deadline = in.Deadline

	previous := task.ProofImage
	if hasFile(in.File) {
		name, err := s.storeImage(in.File, task.ID)
		if err != nil {
			return nil, err
		}
		task.ProofImage = name
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if task.ProofImage != previous {
			s.discardImage(task.ID, task.ProofImage)
		}
		return nil, mapStoreError(err, "task")
	}
	// The old file goes only after the row points at the new one. An upload with the same
	// name has already overwritten it in place.
	if task.ProofImage != previous {
		s.discardImage(task.ID, previous)
	}
	return task, nil
}

// UpdateStatus sets the completion status. Surrounding quotes are tolerated so that a raw
// JSON string body works.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, id, status string) (*domain.Task, error) {
	next := domain.TaskStatus(strings.Trim(strings.TrimSpace(status), `"`))
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"allowed": []string{string(domain.TaskStatusPending), string(domain.TaskStatusDone)},
		})
	}
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	task.Status = next
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, mapStoreError(err, "task")
	}
	return task, nil
}

// Delete removes the task and its image.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, userID, id); err != nil {
		return mapStoreError(err, "task")
	}
	s.discardImage(id, task.ProofImage)
	publish(ctx, s.dispatcher, s.logger, events.EventTaskDeleted, userID, events.TaskPayload{TaskID: id, Title: task.Title})
	return nil
}

func (s *TaskService) storeImage(fh *multipart.FileHeader, taskID string) (string, error) {
	name, err := s.files.Store(fh, taskID)
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, storage.ErrTooLarge):
		return "", apperrors.NewDomainError("FILE_TOO_LARGE", "file too large", http.StatusRequestEntityTooLarge, nil)
	case errors.Is(err, storage.ErrInvalidName):
		return "", apperrors.NewValidationError("invalid file name", nil)
	default:
		return "", &apperrors.DomainError{
			Code:       "UPLOAD_FAILED",
			Message:    "failed to upload image",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}
}

func (s *TaskService) discardImage(taskID, name string) {
	if name == "" {
		return
	}
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("removing proof image", zap.String("task_id", taskID), zap.String("file", name), zap.Error(err))
	}
}

func hasFile(fh *multipart.FileHeader) bool {
	return fh != nil && fh.Size > 0
}

func validateTaskInput(in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Course = strings.TrimSpace(in.Course)
	in.Description = strings.TrimSpace(in.Description)

	errs := validation.Errors{
		"title":    validation.Validate(in.Title, validation.Required, validation.Length(1, 200)),
		"course":   validation.Validate(in.Course, validation.Required, validation.Length(1, 100)),
		"deadline": validation.Validate(in.Deadline, validation.Required),
	}
	if hasFile(in.File) && !IsAllowedImage(in.File) {
		errs["file"] = errors.New("must be a jpeg, png or webp image")
	}
	return apperrors.FromValidation("invalid task data", errs.Filter())
}
