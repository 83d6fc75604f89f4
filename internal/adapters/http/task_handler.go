package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// maxBodyBytes caps request bodies; task payloads are tiny.
const maxBodyBytes = 1 << 20

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// Register mounts the task routes on g. Methods not listed for a route
// answer 405 with an Allow header.
func (h *TaskHandler) Register(g *echo.Group) {
	g.GET("/tasks", h.ListTasks)
	g.POST("/tasks", h.CreateTask)
	g.OPTIONS("/tasks", Options(collectionMethods...))
	g.Match(otherMethods(collectionMethods), "/tasks", MethodNotAllowed(collectionMethods...))

	g.GET("/tasks/:id", h.GetTask)
	g.PATCH("/tasks/:id", h.PatchTask)
	g.PUT("/tasks/:id", h.ReplaceTask)
	g.DELETE("/tasks/:id", h.DeleteTask)
	g.OPTIONS("/tasks/:id", Options(itemMethods...))
	g.Match(otherMethods(itemMethods), "/tasks/:id", MethodNotAllowed(itemMethods...))
}

// ListTasks godoc
// @Summary List tasks
// @Description List tasks newest first, optionally filtered by status
// @Tags tasks
// @Produce json
// @Param status query string false "pending, in-progress or done"
// @Success 200 {array} entities.Task
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.StatusFilter(c.QueryParam("status"))

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body TaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ValidationErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	fields, err := h.decodeFields(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), fields)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// ReplaceTask godoc
// @Summary Replace a task
// @Description Overwrite title, description, status and dueDate; omitted optional fields reset to defaults
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body TaskRequest true "Task data"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ValidationErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) ReplaceTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	fields, err := h.decodeFields(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.ReplaceTask(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// PatchTask godoc
// @Summary Update part of a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body TaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ValidationErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) PatchTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	fields, err := h.decodeFields(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.PatchTask(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.DeleteTask(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// decodeFields reads the request body as a JSON object. An empty body is an
// empty object.
func (h *TaskHandler) decodeFields(c echo.Context) (entities.Fields, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		h.requestLogger(c).WithError(err).Warnw("Failed to read request body")
		return nil, entities.ErrMalformedBody
	}

	fields := entities.Fields{}
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}

	if err := json.Unmarshal(body, &fields); err != nil {
		h.requestLogger(c).WithError(err).Debugw("Rejected malformed request body",
			"path", c.Request().URL.Path,
		)
		return nil, entities.ErrMalformedBody
	}
	if fields == nil {
		fields = entities.Fields{}
	}
	return fields, nil
}

// taskID returns the :id parameter. The router hands the rest of the path to
// a trailing param, so "/tasks/t1/x" arrives as "t1/x" and is not a task.
func taskID(c echo.Context) (string, error) {
	id := c.Param("id")
	if id == "" || strings.Contains(id, "/") {
		return "", echo.ErrNotFound
	}
	return id, nil
}

func (h *TaskHandler) requestLogger(c echo.Context) *logger.Logger {
	return h.logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))
}

var (
	collectionMethods = []string{http.MethodGet, http.MethodPost}
	itemMethods       = []string{http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete}

	// OPTIONS has its own handler; CORS preflights never reach it.
	routableMethods = []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect, http.MethodTrace,
	}
)

func otherMethods(allowed []string) []string {
	others := make([]string, 0, len(routableMethods))
	for _, m := range routableMethods {
		found := false
		for _, a := range allowed {
			if a == m {
				found = true
				break
			}
		}
		if !found {
			others = append(others, m)
		}
	}
	return others
}

// Options answers a plain OPTIONS request with the route's methods.
func Options(allowed ...string) echo.HandlerFunc {
	allow := strings.Join(append(append([]string{}, allowed...), http.MethodOptions), ",")
	return func(c echo.Context) error {
		if strings.Contains(c.Param("id"), "/") {
			return echo.ErrNotFound
		}
		c.Response().Header().Set(echo.HeaderAllow, allow)
		return c.NoContent(http.StatusNoContent)
	}
}

// MethodNotAllowed answers 405 and advertises the supported methods.
func MethodNotAllowed(allowed ...string) echo.HandlerFunc {
	allow := strings.Join(allowed, ",")
	return func(c echo.Context) error {
		if strings.Contains(c.Param("id"), "/") {
			return echo.ErrNotFound
		}
		c.Response().Header().Set(echo.HeaderAllow, allow)
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}
