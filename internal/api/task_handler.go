package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskstream/taskstream-api/internal/api/shared"
	"github.com/taskstream/taskstream-api/internal/domain"
	"github.com/taskstream/taskstream-api/internal/service"
	"github.com/taskstream/taskstream-api/internal/store"
)

// List pagination bounds.
const (
	maxListLimit     = 1000
	defaultListLimit = 100
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With("component", "task_handler"),
	}
}

// Routes mounts all task endpoints on a fresh router.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTask)
	r.Get("/", h.ListTasks)
	r.Get("/statistics", h.GetStatistics)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.Put("/", h.UpdateTask)
		r.Delete("/", h.DeleteTask)
		r.Post("/start", h.StartTask)
		r.Post("/complete", h.CompleteTask)
		r.Post("/cancel", h.CancelTask)
		r.Post("/assign", h.AssignTask)
	})
	return r
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(req.Priority),
		AssignedTo:  req.AssignedTo,
		Actor:       shared.GetUserID(r.Context()),
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.listFilter(w, r)
	if !ok {
		return
	}

	limit, ok := h.queryInt(w, r, "limit", defaultListLimit, 1, maxListLimit)
	if !ok {
		return
	}
	offset, ok := h.queryInt(w, r, "offset", 0, 0, math.MaxInt)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.List(r.Context(), filter, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskListResponse(tasks, total, limit, offset))
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.Update(r.Context(), id, req.Title, req.Description)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// StartTask handles POST /tasks/{id}/start.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Start(r.Context(), id, shared.GetUserID(r.Context()))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// CompleteTask handles POST /tasks/{id}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(r.Context(), id, shared.GetUserID(r.Context()))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// CancelTask handles POST /tasks/{id}/cancel. The body is optional and
// may carry a cancellation reason.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	var req CancelTaskRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	task, err := h.taskService.Cancel(r.Context(), id, req.Reason, shared.GetUserID(r.Context()))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// AssignTask handles POST /tasks/{id}/assign.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	task, err := h.taskService.Assign(r.Context(), id, req.Assignee, shared.GetUserID(r.Context()))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatistics handles GET /tasks/statistics.
func (h *TaskHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	var assignedTo *string
	if v := r.URL.Query().Get("assigned_to"); v != "" {
		assignedTo = &v
	}

	stats, err := h.taskService.Statistics(r.Context(), assignedTo)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskStatisticsResponse(stats))
}

// taskID parses the {id} URL parameter, responding with 400 on failure.
func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

// listFilter parses the status/assigned_to/priority query parameters,
// responding with 400 on unknown enum values.
func (h *TaskHandler) listFilter(w http.ResponseWriter, r *http.Request) (store.TaskFilter, bool) {
	var filter store.TaskFilter

	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.TaskStatus(v)
		if !domain.IsValidTaskStatus(status) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return filter, false
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority := domain.TaskPriority(v)
		if !domain.IsValidTaskPriority(priority) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid priority filter")
			return filter, false
		}
		filter.Priority = &priority
	}
	if v := r.URL.Query().Get("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}
	return filter, true
}

// queryInt parses an integer query parameter with a default and an
// inclusive valid range, responding with 400 on failure.
func (h *TaskHandler) queryInt(w http.ResponseWriter, r *http.Request, name string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return value, true
}
