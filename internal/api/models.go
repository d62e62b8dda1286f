package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskstream/taskstream-api/internal/domain"
	"github.com/taskstream/taskstream-api/internal/service"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"       validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=low medium high critical"`
	AssignedTo  *string `json:"assigned_to"`
}

// UpdateTaskRequest is the request body for updating task details.
// Omitted or empty fields are left unchanged.
type UpdateTaskRequest struct {
	Title       string `json:"title"       validate:"omitempty,max=255"`
	Description string `json:"description"`
}

// AssignTaskRequest is the request body for assigning a task.
type AssignTaskRequest struct {
	Assignee string `json:"assignee" validate:"required"`
}

// CancelTaskRequest is the request body for cancelling a task.
type CancelTaskRequest struct {
	Reason *string `json:"reason"`
}

// TaskResponse is the wire representation of one task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewTaskResponse converts a domain task to its wire representation.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
	}
}

// TaskListResponse is the response body for a task listing.
type TaskListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// NewTaskListResponse converts a page of tasks to its wire form.
func NewTaskListResponse(tasks []*domain.Task, total, limit, offset int) TaskListResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}
	return TaskListResponse{
		Tasks:  responses,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

// TaskStatisticsResponse is the response body for task statistics.
type TaskStatisticsResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// NewTaskStatisticsResponse converts service statistics to wire form.
func NewTaskStatisticsResponse(stats *service.TaskStatistics) TaskStatisticsResponse {
	return TaskStatisticsResponse{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		ByPriority: stats.ByPriority,
	}
}

// HealthCheckResponse is the response body for the health endpoint.
type HealthCheckResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Services  map[string]bool `json:"services"`
}
