package service

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/storage"
)

const (
	owner    = "owner-1"
	stranger = "owner-2"
)

func upload(name, contentType string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     3,
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
}

func newTaskFixture() (*TaskService, *memoryTasks, *mockFileStore) {
	tasks := newMemoryTasks()
	files := &mockFileStore{}
	return NewTaskService(TaskDependencies{TaskRepo: tasks, Files: files}), tasks, files
}

func validInput() TaskInput {
	return TaskInput{
		Title:    "Essay",
		Course:   "PBO",
		Deadline: time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC),
	}
}

func TestTaskService_CreateDefaultsToPending(t *testing.T) {
	svc, _, files := newTaskFixture()

	task, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Empty(t, task.ProofImage)
	files.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestTaskService_CreateWithImage(t *testing.T) {
	svc, tasks, files := newTaskFixture()
	in := validInput()
	in.File = upload("proof.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_proof.png", nil)

	task, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, "task-1_proof.png", task.ProofImage)

	stored, err := tasks.GetForUser(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1_proof.png", stored.ProofImage)
	files.AssertExpectations(t)
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, _, _ := newTaskFixture()

	in := validInput()
	in.Title = "  "
	_, err := svc.Create(context.Background(), owner, in)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	in = validInput()
	in.File = upload("doc.pdf", "application/pdf")
	_, err = svc.Create(context.Background(), owner, in)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestTaskService_UploadFailure(t *testing.T) {
	svc, _, files := newTaskFixture()
	in := validInput()
	in.File = upload("proof.jpg", "image/jpeg")
	files.On("Store", in.File, "task-1").Return("", errors.New("disk full"))

	_, err := svc.Create(context.Background(), owner, in)
	assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))

	in.File = upload("huge.jpg", "image/jpeg")
	files.On("Store", in.File, "task-2").Return("", storage.ErrTooLarge)
	_, err = svc.Create(context.Background(), owner, in)
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpStatus(t, err))
}

func TestTaskService_UpdateReplacesImage(t *testing.T) {
	svc, _, files := newTaskFixture()
	ctx := context.Background()

	in := validInput()
	in.File = upload("old.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_old.png", nil).Once()
	task, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	next := validInput()
	next.Title = "Essay v2"
	next.File = upload("new.webp", "image/webp")
	files.On("Delete", "task-1_old.png").Return(nil).Once()
	files.On("Store", next.File, "task-1").Return("task-1_new.webp", nil).Once()

	updated, err := svc.Update(ctx, owner, task.ID, next)
	require.NoError(t, err)
	assert.Equal(t, "Essay v2", updated.Title)
	assert.Equal(t, "task-1_new.webp", updated.ProofImage)
	files.AssertExpectations(t)
}

func TestTaskService_UpdateKeepsImageWhenUploadFails(t *testing.T) {
	svc, tasks, files := newTaskFixture()
	ctx := context.Background()

	in := validInput()
	in.File = upload("old.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_old.png", nil).Once()
	task, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	next := validInput()
	next.Title = "Essay v2"
	next.File = upload("new.png", "image/png")
	files.On("Store", next.File, "task-1").Return("", errors.New("disk full")).Once()

	_, err = svc.Update(ctx, owner, task.ID, next)
	assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))

	stored, err := tasks.GetForUser(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1_old.png", stored.ProofImage)
	assert.Equal(t, "Essay", stored.Title)
	files.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestTaskService_UpdateSameImageNameIsNotDeleted(t *testing.T) {
	svc, _, files := newTaskFixture()
	ctx := context.Background()

	in := validInput()
	in.File = upload("proof.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_proof.png", nil).Once()
	task, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	next := validInput()
	next.File = upload("proof.png", "image/png")
	files.On("Store", next.File, "task-1").Return("task-1_proof.png", nil).Once()

	updated, err := svc.Update(ctx, owner, task.ID, next)
	require.NoError(t, err)
	assert.Equal(t, "task-1_proof.png", updated.ProofImage)
	files.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestTaskService_UpdateDiscardsNewImageWhenSaveFails(t *testing.T) {
	svc, tasks, files := newTaskFixture()
	ctx := context.Background()

	in := validInput()
	in.File = upload("old.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_old.png", nil).Once()
	task, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	next := validInput()
	next.File = upload("new.png", "image/png")
	files.On("Store", next.File, "task-1").Return("task-1_new.png", nil).Once()
	files.On("Delete", "task-1_new.png").Return(nil).Once()
	tasks.updateErr = errors.New("connection reset")

	_, err = svc.Update(ctx, owner, task.ID, next)
	assert.Error(t, err)
	files.AssertExpectations(t)
	files.AssertNotCalled(t, "Delete", "task-1_old.png")
}

func TestTaskService_CreateRollsBackWhenImageSaveFails(t *testing.T) {
	svc, tasks, files := newTaskFixture()
	ctx := context.Background()

	in := validInput()
	in.File = upload("proof.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_proof.png", nil).Once()
	files.On("Delete", "task-1_proof.png").Return(nil).Once()
	tasks.updateErr = errors.New("connection reset")

	_, err := svc.Create(ctx, owner, in)
	assert.Error(t, err)
	files.AssertExpectations(t)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskService_OwnerScoping(t *testing.T) {
	svc, _, _ := newTaskFixture()
	ctx := context.Background()
	task, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, task.ID)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	_, err = svc.Update(ctx, stranger, task.ID, validInput())
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	_, err = svc.UpdateStatus(ctx, stranger, task.ID, "Selesai")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	err = svc.Delete(ctx, stranger, task.ID)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	list, err := svc.List(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskService_UpdateStatus(t *testing.T) {
	svc, _, _ := newTaskFixture()
	ctx := context.Background()
	task, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, owner, task.ID, `"Selesai"`)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, updated.Status)

	_, err = svc.UpdateStatus(ctx, owner, task.ID, "Done")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestTaskService_DeleteRemovesImage(t *testing.T) {
	svc, tasks, files := newTaskFixture()
	ctx := context.Background()
	in := validInput()
	in.File = upload("proof.png", "image/png")
	files.On("Store", in.File, "task-1").Return("task-1_proof.png", nil)
	files.On("Delete", "task-1_proof.png").Return(nil)

	task, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, task.ID))

	_, err = tasks.GetForUser(ctx, owner, task.ID)
	assert.Error(t, err)
	files.AssertExpectations(t)
}

func TestTaskService_ListOrderedByDeadline(t *testing.T) {
	svc, _, _ := newTaskFixture()
	ctx := context.Background()

	later := validInput()
	later.Title = "later"
	later.Deadline = later.Deadline.Add(48 * time.Hour)
	_, err := svc.Create(ctx, owner, later)
	require.NoError(t, err)
	sooner := validInput()
	sooner.Title = "sooner"
	_, err = svc.Create(ctx, owner, sooner)
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sooner", list[0].Title)
	assert.Equal(t, "later", list[1].Title)
}

func TestIsAllowedImage(t *testing.T) {
	assert.True(t, IsAllowedImage(upload("a.jpg", "image/jpeg")))
	assert.True(t, IsAllowedImage(upload("a.png", "IMAGE/PNG")))
	assert.True(t, IsAllowedImage(upload("a.webp", "image/webp; charset=binary")))
	assert.False(t, IsAllowedImage(upload("a.gif", "image/gif")))
	assert.False(t, IsAllowedImage(upload("a", "")))
	assert.False(t, IsAllowedImage(nil))
}
