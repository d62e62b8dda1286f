package postgres

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskstream/taskstream-api/internal/domain"
	"github.com/taskstream/taskstream-api/internal/store"
)

var taskTestColumns = []string{
	"id", "title", "description", "status", "priority",
	"assigned_to", "created_at", "updated_at", "completed_at",
}

func newTestStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return NewPostgresTaskStore(db, logger), mock
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("returns task when found", func(t *testing.T) {
		s, mock := newTestStore(t)
		id := uuid.New()
		now := time.Now().UTC()

		rows := sqlmock.NewRows(taskTestColumns).
			AddRow(id, "Write report", "Quarterly report", "pending", "high", nil, now, now, nil)
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(rows)

		task, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, domain.TaskPriorityHigh, task.Priority)
		assert.Nil(t, task.AssignedTo)
		assert.Nil(t, task.CompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrTaskNotFound for missing id", func(t *testing.T) {
		s, mock := newTestStore(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(taskTestColumns))

		task, err := s.GetByID(context.Background(), id)
		assert.Nil(t, task)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scans nullable columns when present", func(t *testing.T) {
		s, mock := newTestStore(t)
		id := uuid.New()
		now := time.Now().UTC()

		rows := sqlmock.NewRows(taskTestColumns).
			AddRow(id, "Deploy", "", "completed", "medium", "alice", now, now, now)
		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(rows)

		task, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, task.AssignedTo)
		assert.Equal(t, "alice", *task.AssignedTo)
		require.NotNil(t, task.CompletedAt)
		assert.True(t, task.CompletedAt.Equal(now))
	})
}

func TestPostgresTaskStore_List(t *testing.T) {
	t.Parallel()

	t.Run("no filter uses only pagination args", func(t *testing.T) {
		s, mock := newTestStore(t)
		now := time.Now().UTC()

		rows := sqlmock.NewRows(taskTestColumns).
			AddRow(uuid.New(), "A", "", "pending", "low", nil, now, now, nil).
			AddRow(uuid.New(), "B", "", "in_progress", "medium", "bob", now, now, nil)
		mock.ExpectQuery("SELECT (.+) FROM tasks ORDER BY created_at DESC LIMIT \\$1 OFFSET \\$2").
			WithArgs(50, 0).
			WillReturnRows(rows)

		tasks, err := s.List(context.Background(), store.TaskFilter{}, 50, 0)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all filters produce positional conditions", func(t *testing.T) {
		s, mock := newTestStore(t)
		status := domain.TaskStatusPending
		priority := domain.TaskPriorityHigh
		assignee := "alice"

		mock.ExpectQuery("SELECT (.+) FROM tasks WHERE status = \\$1 AND assigned_to = \\$2 AND priority = \\$3 ORDER BY created_at DESC LIMIT \\$4 OFFSET \\$5").
			WithArgs("pending", "alice", "high", 10, 5).
			WillReturnRows(sqlmock.NewRows(taskTestColumns))

		tasks, err := s.List(context.Background(), store.TaskFilter{
			Status:     &status,
			AssignedTo: &assignee,
			Priority:   &priority,
		}, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_Save(t *testing.T) {
	t.Parallel()

	s, mock := newTestStore(t)
	task := domain.NewTask("Write tests", "", domain.TaskPriorityHigh, nil)

	mock.ExpectExec("INSERT INTO tasks (.+) ON CONFLICT \\(id\\) DO UPDATE SET").
		WithArgs(
			task.ID, task.Title, task.Description, "pending", "high",
			sqlmock.AnyArg(), task.CreatedAt, task.UpdatedAt, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Save(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("reports true when a row was removed", func(t *testing.T) {
		s, mock := newTestStore(t)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := s.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("reports false when no row matched", func(t *testing.T) {
		s, mock := newTestStore(t)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := s.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestPostgresTaskStore_Exists(t *testing.T) {
	t.Parallel()

	s, mock := newTestStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM tasks WHERE id = \\$1\\)").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.Exists(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_Count(t *testing.T) {
	t.Parallel()

	s, mock := newTestStore(t)
	status := domain.TaskStatusCompleted

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tasks WHERE status = \\$1").
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := s.Count(context.Background(), store.TaskFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
