package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/service"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// deadlineLayouts are tried in order; seconds are optional.
var deadlineLayouts = []string{dto.DeadlineLayout, "2006-01-02T15:04:05"}

// TasksHandler exposes the task endpoints of the authenticated user.
type TasksHandler struct {
	tasks    *service.TaskService
	location *time.Location
}

// NewTasksHandler constructs handler. Deadlines without an offset are read in loc, or UTC
// when loc is nil.
func NewTasksHandler(taskService *service.TaskService, loc *time.Location) *TasksHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TasksHandler{tasks: taskService, location: loc}
}

// List handles GET /api/tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	out := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, dto.NewTaskResponse(&tasks[i]))
	}
	return c.JSON(dto.Success("tasks loaded", out))
}

// Create handles POST /api/tasks (multipart form).
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in, err := h.taskInput(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), user.ID, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.Success("task created", dto.NewTaskResponse(task)))
}

// Update handles PUT /api/tasks/:id (multipart form).
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in, err := h.taskInput(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Update(c.UserContext(), user.ID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("task updated", dto.NewTaskResponse(task)))
}

// UpdateStatus handles PATCH /api/tasks/:id/status. The body is the bare status string.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.UpdateStatus(c.UserContext(), user.ID, c.Params("id"), string(c.Body()))
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("status updated", dto.NewTaskResponse(task)))
}

// Delete handles DELETE /api/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.Success("task deleted", nil))
}

func (h *TasksHandler) taskInput(c *fiber.Ctx) (service.TaskInput, error) {
	deadline, err := parseDeadline(c.FormValue("deadline"), h.location)
	if err != nil {
		return service.TaskInput{}, apperrors.NewValidationError(
			"invalid deadline, expected format YYYY-MM-DDTHH:MM", nil)
	}

	var file *multipart.FileHeader
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return service.TaskInput{}, apperrors.NewValidationError("invalid multipart form", nil)
		}
		if files := form.File["file"]; len(files) > 0 {
			file = files[0]
		}
	}

	return service.TaskInput{
		Title:       c.FormValue("title"),
		Course:      c.FormValue("course"),
		Description: c.FormValue("description"),
		Deadline:    deadline,
		File:        file,
	}, nil
}

func parseDeadline(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range deadlineLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
