package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param assignedTo query int false "Assignee member ID"
// @Param pending query bool false "Only tasks not yet completed"
// @Param limit query int false "Maximum number of tasks"
// @Success 200 {array} entities.Task
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	assignee, err := queryID(c, "assignedTo")
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	filter := ports.TaskFilter{
		AssignedTo: assignee,
		Pending:    c.QueryParam("pending") == "true",
		Limit:      limit,
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List tasks failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create task failed", "title", req.Title)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// CompleteTask godoc
// @Summary Mark a task completed
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body ports.CompleteTaskRequest false "Who completed it"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ports.CompleteTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CompleteTask(c.Request().Context(), id, req.CompletedBy)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Complete task failed", "task_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}
